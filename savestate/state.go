// Package savestate provides the serialization primitive shared by every
// stateful module in the core. It follows the same shape as the original
// implementation's StateWrapper: a single type that walks a fixed sequence
// of Do* calls in exactly the same order whether it is writing or reading,
// so a module's DoState method only has to be written once. Versioned
// fields that were added after a module's state layout was first frozen
// use the Ex variants, which fall back to a supplied default when reading
// an older stream.
package savestate

import (
	"bytes"
	"encoding/binary"

	"github.com/kestrel-emu/gopsx/curated"
)

// Mode indicates whether a State is serializing into or out of its buffer.
type Mode int

const (
	ModeWrite Mode = iota
	ModeRead
)

// State is a single cursor over a save-state byte stream. The zero value is
// not usable; construct one with NewWriter or NewReader.
type State struct {
	mode    Mode
	version uint32
	failed  bool

	w *bytes.Buffer
	r *bytes.Reader
}

// NewWriter starts a fresh save-state stream tagged with version. version
// should be bumped whenever a module's DoState call sequence changes shape,
// so that a future NewReader can tell old streams apart from new ones.
func NewWriter(version uint32) *State {
	s := &State{mode: ModeWrite, version: version, w: new(bytes.Buffer)}
	binary.Write(s.w, binary.LittleEndian, version)
	return s
}

// NewReader opens an existing save-state stream for reading. It consumes
// the version header written by NewWriter before returning.
func NewReader(data []byte) (*State, error) {
	r := bytes.NewReader(data)

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, curated.Wrap(curated.CodeSaveStateTruncated, err, "savestate: truncated stream")
	}

	return &State{mode: ModeRead, version: version, r: r}, nil
}

// Mode reports whether this State is serializing into or out of its
// buffer; DoState implementations that need asymmetric read/write logic
// (applying a decoded register after a read, for instance) branch on this.
func (s *State) Mode() Mode {
	return s.mode
}

// Version is the version tag the stream was written with (for ModeWrite
// streams, the tag passed to NewWriter; for ModeRead streams, the tag read
// from the header).
func (s *State) Version() uint32 {
	return s.version
}

// Bytes returns the accumulated stream. Only meaningful in ModeWrite.
func (s *State) Bytes() []byte {
	return s.w.Bytes()
}

// OK reports whether every Do* call on this State has succeeded so far. A
// module's DoState method checks this once at the end and folds it into the
// boolean validity flag it reports back to its caller.
func (s *State) OK() bool {
	return !s.failed
}

func (s *State) do(v interface{}) {
	var err error
	if s.mode == ModeWrite {
		err = binary.Write(s.w, binary.LittleEndian, v)
	} else {
		err = binary.Read(s.r, binary.LittleEndian, v)
	}
	if err != nil {
		s.failed = true
	}
}

// DoBool serializes a single bool field, in place.
func (s *State) DoBool(v *bool) {
	if s.mode == ModeWrite {
		var b uint8
		if *v {
			b = 1
		}
		s.do(&b)
		return
	}
	var b uint8
	s.do(&b)
	*v = b != 0
}

// DoU8 serializes a single byte field, in place.
func (s *State) DoU8(v *uint8) { s.do(v) }

// DoI8 serializes a single signed byte field, in place.
func (s *State) DoI8(v *int8) { s.do(v) }

// DoU16 serializes a little-endian uint16 field, in place.
func (s *State) DoU16(v *uint16) { s.do(v) }

// DoU32 serializes a little-endian uint32 field, in place.
func (s *State) DoU32(v *uint32) { s.do(v) }

// DoI32 serializes a little-endian int32 field, in place.
func (s *State) DoI32(v *int32) { s.do(v) }

// DoU32Array serializes a fixed-size array of uint32, in place, element by
// element and in order - used for the general purpose register file and
// similarly shaped fixed-length state.
func (s *State) DoU32Array(v []uint32) {
	for i := range v {
		s.do(&v[i])
	}
}

// DoBytes serializes a fixed-length byte slice, in place - used for
// scratchpad RAM and similar bulk storage.
func (s *State) DoBytes(v []byte) {
	if s.mode == ModeWrite {
		s.w.Write(v)
		return
	}
	if n, err := s.r.Read(v); err != nil || n != len(v) {
		s.failed = true
	}
}

// DoBoolEx serializes a bool field that was only introduced in sinceVersion
// of the stream's shape. Reading an older stream leaves *v set to def
// instead of consuming any bytes.
func (s *State) DoBoolEx(v *bool, sinceVersion uint32, def bool) {
	if s.mode == ModeRead && s.version < sinceVersion {
		*v = def
		return
	}
	s.DoBool(v)
}

// DoU8Ex serializes a byte field that was only introduced in sinceVersion
// of the stream's shape. Reading an older stream leaves *v set to def
// instead of consuming any bytes.
func (s *State) DoU8Ex(v *uint8, sinceVersion uint32, def uint8) {
	if s.mode == ModeRead && s.version < sinceVersion {
		*v = def
		return
	}
	s.DoU8(v)
}

// DoI8Ex serializes a signed byte field that was only introduced in
// sinceVersion of the stream's shape. Reading an older stream leaves *v set
// to def instead of consuming any bytes.
func (s *State) DoI8Ex(v *int8, sinceVersion uint32, def int8) {
	if s.mode == ModeRead && s.version < sinceVersion {
		*v = def
		return
	}
	s.DoI8(v)
}

// DoU16Ex serializes a uint16 field that was only introduced in
// sinceVersion of the stream's shape. Reading an older stream leaves *v set
// to def instead of consuming any bytes.
func (s *State) DoU16Ex(v *uint16, sinceVersion uint32, def uint16) {
	if s.mode == ModeRead && s.version < sinceVersion {
		*v = def
		return
	}
	s.DoU16(v)
}

// DoBytesEx serializes a fixed-length byte slice that was only introduced
// in sinceVersion of the stream's shape. Reading an older stream fills v
// with def instead of consuming any bytes.
func (s *State) DoBytesEx(v []byte, sinceVersion uint32, def byte) {
	if s.mode == ModeRead && s.version < sinceVersion {
		for i := range v {
			v[i] = def
		}
		return
	}
	s.DoBytes(v)
}

// Serializable is implemented by every stateful module. DoState is called
// once during a save with a ModeWrite State and once during a load with a
// ModeRead State opened over the bytes a previous save produced; the same
// method body drives both directions. It returns the stream's version tag
// and the State's OK() flag.
type Serializable interface {
	DoState(s *State) (int, bool)
}
