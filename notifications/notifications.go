// Package notifications decouples the core from whatever host UI surfaces
// informational messages to the user. The core never formats user-facing
// text itself; it raises a Notice through a Notify sink supplied by the
// host at construction time.
package notifications

// Notice identifies an event the host may want to surface to the user.
type Notice string

// List of defined notifications raised by this module.
const (
	// NoticeAnalogToggleBlocked is raised when the player presses the
	// analog/digital toggle button while the controller is locked into its
	// current mode by a prior configuration command.
	NoticeAnalogToggleBlocked Notice = "NoticeAnalogToggleBlocked"

	// NoticeAnalogModeChanged is raised whenever the controller's
	// digital/analog mode actually changes, whether from a player toggle or
	// a forced reset.
	NoticeAnalogModeChanged Notice = "NoticeAnalogModeChanged"

	// NoticeAnalogModeForcingDisabled is raised once, on construction, when
	// the host settings override disables ForceAnalogOnReset.
	NoticeAnalogModeForcingDisabled Notice = "NoticeAnalogModeForcingDisabled"
)

// Notify is implemented by the host. The core calls Notify whenever one of
// the Notice values above occurs; the host decides how (or whether) to
// present it. The core treats a non-nil Notify as optional: a nil sink is
// valid and simply discards notices.
type Notify interface {
	Notify(notice Notice) error
}
