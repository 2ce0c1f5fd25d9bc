// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subcatch

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/hydrocore/climate"
	"github.com/cpmech/hydrocore/lid"
	"github.com/cpmech/hydrocore/massbal"
)

func checkClose(t *testing.T, name string, tol, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > tol {
		t.Fatalf("%s: got %v, want %v (tol %v)", name, actual, expected, tol)
	}
}

// constantGage rains at a fixed rate from every gage, forever.
type constantGage struct{ rate float64 }

func (g constantGage) PrecipAt(gage int, t float64) (rain, snow float64) { return g.rate, 0 }

func newSingleImpervious(area, width, slope, n, rainRate float64) (*Subcatchment, *Collaborators) {
	sub := &Subcatchment{
		ID: "S1", Area: area, Width: width, Slope: slope, FracImperv: 1, Gage: 0,
		OutletIsSubcatch: false, Outlet: 0,
	}
	sub.Subareas[Imperv0] = Subarea{
		FracArea: 1, N: n, DStore: 0, Target: ToOutlet,
		Alpha: ComputeAlpha(n, width, slope, 1, sub.NonLidArea()),
	}
	cols := &Collaborators{
		Gage: constantGage{rate: rainRate},
		Evap: &climate.StepEvap{},
		Lid:  lid.NoControls{},
		GW:   lid.NoGroundwater{},
		MassBal: massbal.NewAccumulator(),
		WetStep: 60, DryStep: 600,
	}
	return sub, cols
}

// Test_steady_state_runoff_single_impervious reproduces the seed scenario:
// one acre, fully impervious, 1 in/hr rain, steady-state runoff ~= 1.008 cfs
// (i*A, since at equilibrium ponded depth is constant and all inflow leaves
// as runoff regardless of Manning's n).
func Test_steady_state_runoff_single_impervious(tst *testing.T) {
	chk.PrintTitle("steady_state_runoff_single_impervious")
	const acreToFt2 = 43560.0
	const inPerHrToFtPerSec = (1.0 / 12.0) / 3600.0

	rainRate := 1.0 * inPerHrToFtPerSec
	area := 1.0 * acreToFt2
	width := math.Sqrt(area)
	sub, cols := newSingleImpervious(area, width, 0.01, 0.01, rainRate)

	dt := 30.0
	t := 0.0
	for i := 0; i < 4000; i++ {
		if _, err := Step(sub, 0, t, dt, cols); err != nil {
			tst.Fatalf("Step: %v", err)
		}
		t += dt
	}

	expected := rainRate * area // cfs at steady state
	checkClose(tst, "steady-state runoff", 0.03, sub.NewRunoff, expected)
	if expected < 1.0 || expected > 1.02 {
		tst.Fatalf("sanity: expected runoff %v outside seed scenario's ~1.008 cfs band", expected)
	}
}

func Test_dry_subcatchment_produces_no_runoff(tst *testing.T) {
	chk.PrintTitle("dry_subcatchment_produces_no_runoff")
	sub, cols := newSingleImpervious(43560, 200, 0.01, 0.01, 0)
	_, err := Step(sub, 0, 0, 60, cols)
	if err != nil {
		tst.Fatalf("Step: %v", err)
	}
	checkClose(tst, "no runoff", 1e-12, sub.NewRunoff, 0)
}

func Test_zero_manning_n_instant_spill(tst *testing.T) {
	chk.PrintTitle("zero_manning_n_instant_spill")
	sub := &Subcatchment{Area: 1000, Width: 50, Slope: 0.01, FracImperv: 1}
	sub.Subareas[Imperv0] = Subarea{FracArea: 1, N: 0, DStore: 0.05, Alpha: 0}
	sub.Subareas[Imperv0].Inflow = 0.001 // ft/s
	dt := 60.0
	dtRunoff := UpdatePondedDepth(&sub.Subareas[Imperv0], dt)
	checkClose(tst, "depth clamped to dStore", 1e-9, sub.Subareas[Imperv0].Depth, 0.05)
	checkClose(tst, "full tick counted as runoff time", 1e-9, dtRunoff, dt)
	expectedRunoff := (0.001*dt - 0.05) / dt
	checkClose(tst, "instantaneous-spill runoff", 1e-9, sub.Subareas[Imperv0].Runoff, expectedRunoff)
}

func Test_select_time_step_clamps_to_evap_change(tst *testing.T) {
	chk.PrintTitle("select_time_step_clamps_to_evap_change")
	sub, cols := newSingleImpervious(43560, 200, 0.01, 0.01, 0)
	cols.Evap = &climate.StepEvap{Times: []float64{0, 100}, Rates: []float64{1e-7, 2e-7}}
	cols.DryStep = 300
	dt := SelectTimeStep(cols, sub, 0, 1e9)
	checkClose(tst, "clamped by next evap change", 1e-9, dt, 100)
}

func Test_one_tick_lag_routes_perv_to_imperv1_next_tick(tst *testing.T) {
	chk.PrintTitle("one_tick_lag_routes_perv_to_imperv1_next_tick")
	area := 1000.0
	sub := &Subcatchment{Area: area, Width: 50, Slope: 0.01, FracImperv: 0.5}
	sub.Subareas[Imperv1] = Subarea{FracArea: 0.5, N: 0.01, DStore: 0, Alpha: ComputeAlpha(0.01, 50, 0.01, 0.5, area)}
	sub.Subareas[Perv] = Subarea{FracArea: 0.5, N: 0.1, DStore: 0, Target: ToImperv, FracRouted: 1, Alpha: ComputeAlpha(0.1, 50, 0.01, 0.5, area)}
	cols := &Collaborators{
		Gage: constantGage{rate: 1e-5}, Evap: &climate.StepEvap{},
		Lid: lid.NoControls{}, GW: lid.NoGroundwater{}, WetStep: 60, DryStep: 300,
	}
	if _, err := Step(sub, 0, 0, 60, cols); err != nil {
		tst.Fatalf("Step: %v", err)
	}
	if sub.Subareas[Imperv1].pendingInflow <= 0 {
		tst.Fatalf("expected PERV runoff queued into IMPERV1's pendingInflow for the next tick")
	}
	queued := sub.Subareas[Imperv1].pendingInflow
	if _, err := Step(sub, 0, 60, 60, cols); err != nil {
		tst.Fatalf("Step: %v", err)
	}
	_ = queued
}
