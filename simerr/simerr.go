// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package simerr defines the error taxonomy shared by every routing and
// runoff component: topology, numeric, I/O, convergence and memory errors.
// Fatal kinds wrap simerr.Fatal so callers can test with errors.Is; the
// convergence kind is the only non-fatal member of the taxonomy and is
// counted rather than propagated.
package simerr

import (
	"errors"
	"fmt"

	"github.com/cpmech/gosl/chk"
)

// Fatal marks an error as requiring the caller to stop the simulation.
var Fatal = errors.New("fatal simulation error")

// Kind enumerates the abstract error categories named in the spec.
type Kind int

const (
	Topology Kind = iota
	Numeric
	IO
	Convergence
	Memory
)

func (k Kind) String() string {
	switch k {
	case Topology:
		return "topology"
	case Numeric:
		return "numeric"
	case IO:
		return "io"
	case Convergence:
		return "convergence"
	case Memory:
		return "memory"
	default:
		return "unknown"
	}
}

// Error is the concrete error type produced by this package. Convergence
// errors are never fatal; every other kind is.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	if e.Kind == Convergence {
		return nil
	}
	return Fatal
}

// IsFatal reports whether err is a simulation error that must halt the run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, Fatal)
}

// New builds a taxonomy error. It uses chk.Err for message formatting so
// that errors read the way the teacher's chk.Err-built errors read.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: chk.Err(format, args...).Error()}
}

// Per-kind constructors for the fatal kinds named in §7.
func NewTopology(format string, args ...interface{}) error { return New(Topology, format, args...) }
func NewNumeric(format string, args ...interface{}) error   { return New(Numeric, format, args...) }
func NewIO(format string, args ...interface{}) error        { return New(IO, format, args...) }
func NewMemory(format string, args ...interface{}) error    { return New(Memory, format, args...) }

// NewConvergence builds the one non-fatal taxonomy member: a dynamic-wave
// node that failed to converge this step. Callers increment a counter and
// continue; they must not treat this as Fatal.
func NewConvergence(format string, args ...interface{}) error {
	return New(Convergence, format, args...)
}
