// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package massbal exposes the out-of-scope continuity-error-accumulator
// collaborator named in §6 (UpdateRunoff, UpdateLoading) and a minimal
// reference Accumulator so callers can observe Testable Property 1 (global
// mass balance within 1%) without a full reporting text renderer, which
// remains out of scope.
package massbal

// Sink is the accumulator contract runoff and routing push volume and
// pollutant-mass terms into.
type Sink interface {
	UpdateRunoff(kind string, volume float64)
	UpdateLoading(kind, pollutant string, mass float64)
}

// Accumulator is a minimal Sink that totals volumes by kind and exposes a
// continuity-error ratio, the way the teacher keeps an explicit add-up of
// recorded quantities rather than deriving them after the fact.
type Accumulator struct {
	Totals        map[string]float64
	Loadings      map[string]float64 // keyed "kind/pollutant"
	StoredInitial float64
	StoredFinal   float64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{Totals: map[string]float64{}, Loadings: map[string]float64{}}
}

func (a *Accumulator) UpdateRunoff(kind string, volume float64) {
	a.Totals[kind] += volume
}

func (a *Accumulator) UpdateLoading(kind, pollutant string, mass float64) {
	a.Loadings[kind+"/"+pollutant] += mass
}

// ContinuityError computes the relative closure residual:
//
//	(inflow - outflow - losses - Δstored) / max(inflow, outflow, 1e-9)
//
// where "in", "out", "losses" are the Totals keys of those names. Values
// near zero satisfy Testable Property 1 (within 1%).
func (a *Accumulator) ContinuityError() float64 {
	in := a.Totals["in"]
	out := a.Totals["out"]
	losses := a.Totals["losses"]
	dStored := a.StoredFinal - a.StoredInitial
	denom := in
	if out > denom {
		denom = out
	}
	if denom < 1e-9 {
		denom = 1e-9
	}
	return (in - out - losses - dStored) / denom
}
