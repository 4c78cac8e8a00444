// Package cpu implements an interpreter for the MIPS R3000A-compatible CPU
// at the heart of the console. Coprocessor 0 (system control) is
// implemented directly in this package; coprocessor 2 (the geometry
// transformation engine) is dispatched to whatever gte.Coprocessor the host
// plugs in at Initialize time. The interpreter reproduces the pipeline
// visible side effects a real R3000A exhibits - the branch delay slot, the
// load delay slot, and exception vectoring - rather than just the
// instructions' data-flow effect.
package cpu
