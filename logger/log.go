// Package logger implements a small central, in-memory log shared by every
// package in the module. Nothing here writes to disk or blocks: entries are
// kept in a bounded ring and can be drained on demand by whatever the host
// process uses for diagnostics.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Permission implementations indicate whether the caller is currently
// allowed to add log entries. Callers that log at high frequency can use
// this to disable logging without littering call sites with conditionals.
type Permission interface {
	AllowLogging() bool
}

type allow struct{}

func (allow) AllowLogging() bool { return true }

// Allow is a Permission that always permits logging.
var Allow Permission = allow{}

// Entry is a single record in the central log. Consecutive identical entries
// are coalesced; Repeated counts the additional occurrences.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Repeated  int
}

func (e Entry) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s: %s", e.Tag, e.Detail))
	if e.Repeated > 0 {
		s.WriteString(fmt.Sprintf(" (repeat x%d)", e.Repeated+1))
	}
	s.WriteString("\n")
	return s.String()
}

const maxEntries = 512

type logger struct {
	mu      sync.Mutex
	entries []Entry
	echo    io.Writer
}

var central = &logger{entries: make([]Entry, 0, maxEntries)}

func (l *logger) log(tag, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	if n := len(l.entries); n > 0 {
		last := &l.entries[n-1]
		if last.Tag == tag && last.Detail == detail {
			last.Repeated++
			last.Timestamp = time.Now()
			if l.echo != nil {
				io.WriteString(l.echo, last.String())
			}
			return
		}
	}

	e := Entry{Timestamp: time.Now(), Tag: tag, Detail: detail}
	l.entries = append(l.entries, e)
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}

	if l.echo != nil {
		io.WriteString(l.echo, e.String())
	}
}

// Log adds an entry to the central log if perm allows it.
func Log(perm Permission, tag, detail string) {
	if perm == Allow || perm.AllowLogging() {
		central.log(tag, detail)
	}
}

// Logf adds a formatted entry to the central log if perm allows it.
func Logf(perm Permission, tag, format string, args ...interface{}) {
	if perm == Allow || perm.AllowLogging() {
		central.log(tag, fmt.Sprintf(format, args...))
	}
}

// Clear removes every entry from the central log.
func Clear() {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.entries = central.entries[:0]
}

// Write copies every entry currently in the log to output.
func Write(output io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	for _, e := range central.entries {
		io.WriteString(output, e.String())
	}
}

// Tail writes the most recent number entries to output.
func Tail(output io.Writer, number int) {
	central.mu.Lock()
	defer central.mu.Unlock()
	if number > len(central.entries) {
		number = len(central.entries)
	}
	for _, e := range central.entries[len(central.entries)-number:] {
		io.WriteString(output, e.String())
	}
}

// SetEcho causes every future log entry to also be written to output
// immediately. Passing nil disables echoing. Primarily useful for tests and
// command-line tools that want to watch the core's behaviour live.
func SetEcho(output io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.echo = output
}
