// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package infil exposes the out-of-scope infiltration collaborator named in
// §6: Rate(subcatchID, precip, ponded, dt, state) -> (rate, err), advancing
// the opaque state in place. The core owns the opaque per-subcatchment State but never inspects it, the
// same way the teacher's WithIntVars elements back up and restore opaque
// internal variables without the domain driver knowing their shape.
package infil

import "math"

// State is opaque per-subcatchment infiltration state threaded back through
// every call. The core allocates a zero State for each subcatchment at open
// and never reads its fields.
type State struct {
	CumInfil float64 // model-specific running total; Horton keeps elapsed infiltration time here, seconds
	private  [4]float64
}

// Model computes infiltration rate for the pervious subarea of one
// subcatchment. It is pure apart from advancing the supplied State in place.
type Model interface {
	Rate(subcatchID int, precip, ponded, dt float64, st *State) (rate float64, err error)
}

// Horton is a minimal reference implementation of Horton's exponential-decay
// infiltration model, sufficient to exercise the Model contract end to end.
// f = fc + (f0-fc)*exp(-k*t), capped so the returned rate never exceeds
// available moisture (precip+ponded over dt); a further cap against the
// groundwater unsaturated-zone void-space rate is applied by the caller
// (subcatch), not here, per §4.3 step 4.
type Horton struct {
	F0, Fc, K float64 // initial rate, final rate (ft/s), decay constant (1/s)
}

func NewHorton(f0, fc, k float64) *Horton { return &Horton{F0: f0, Fc: fc, K: k} }

func (h *Horton) Rate(subcatchID int, precip, ponded, dt float64, st *State) (rate float64, err error) {
	t := st.CumInfil
	rate = h.Fc + (h.F0-h.Fc)*math.Exp(-h.K*t)
	if rate < 0 {
		rate = 0
	}
	available := precip + ponded/dt
	if rate > available {
		rate = available
	}
	st.CumInfil = t + dt
	return rate, nil
}
