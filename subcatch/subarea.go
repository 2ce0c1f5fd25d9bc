// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subcatch

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/ode"
)

// ODETol is the acceptable error for the ponded-depth ODE solver (§4.2),
// named ODETOL in the teacher's spirit of naming magic numbers (subcatch.c's
// own ODETOL = 0.0001).
const ODETol = 1e-4

// outflowRate is r(D) = alpha*(D-dStore)^(5/3) for D > dStore, else 0.
func outflowRate(alpha, dStore, d float64) float64 {
	if d <= dStore {
		return 0
	}
	return alpha * math.Pow(d-dStore, 5.0/3.0)
}

// UpdatePondedDepth integrates a sub-area's ponded depth forward by dt and
// returns dtRunoff, the wall time during which D > dStore (§4.2 contract).
// Below dStore accumulation is closed-form; above dStore an adaptive Radau5
// step (tolerance ODETol) is used, configured exactly the way the teacher's
// mdl/retention.Update configures its implicit saturation-update solver.
// When alpha == 0, runoff is modeled as instantaneous spill.
func UpdatePondedDepth(sub *Subarea, dt float64) (dtRunoff float64) {
	if dt <= 0 {
		return 0
	}

	if sub.Alpha == 0 {
		d := sub.Depth + sub.Inflow*dt
		if d > sub.DStore {
			sub.Runoff = (d - sub.DStore) / dt
			sub.Depth = sub.DStore
			return dt
		}
		sub.Depth = d
		sub.Runoff = 0
		return 0
	}

	d0 := sub.Depth
	i := sub.Inflow

	if d0 <= sub.DStore {
		// closed-form accumulation until (if ever) D crosses dStore.
		if i <= 0 {
			sub.Depth = d0
			sub.Runoff = 0
			return 0
		}
		tCross := (sub.DStore - d0) / i
		if tCross >= dt {
			sub.Depth = d0 + i*dt
			sub.Runoff = 0
			return 0
		}
		d0 = sub.DStore
		dt -= tCross
		dtRunoff = dt
	} else {
		dtRunoff = dt
	}

	dNew := integrateODE(sub.Alpha, sub.DStore, i, d0, dt)
	sub.Depth = dNew
	sub.Runoff = outflowRate(sub.Alpha, sub.DStore, dNew)
	return dtRunoff
}

// integrateODE solves dD/dt = i - r(D) forward by dt from d0, the way
// mdl/retention.Update solves its one-state-variable saturation ODE with a
// Radau5 stepper: odesol.Init("Radau5", 1, fcn, jac, nil, nil), SetTol,
// Distr = false, then Solve over the interval [0, dt].
func integrateODE(alpha, dStore, i, d0, dt float64) float64 {
	if dt <= 0 {
		return d0
	}
	fcn := func(f []float64, x, t float64, y []float64) (e error) {
		f[0] = i - outflowRate(alpha, dStore, y[0])
		return nil
	}
	jac := func(dfdy *la.Triplet, x, t float64, y []float64) (e error) {
		if dfdy.Max() == 0 {
			dfdy.Init(1, 1, 1)
		}
		d := y[0]
		var dr float64
		if d > dStore {
			dr = alpha * (5.0 / 3.0) * math.Pow(d-dStore, 2.0/3.0)
		}
		dfdy.Start()
		dfdy.Put(0, 0, -dr)
		return nil
	}
	var solver ode.Solver
	solver.Init("Radau5", 1, fcn, jac, nil, nil)
	solver.SetTol(ODETol, ODETol)
	solver.Distr = false
	y := []float64{d0}
	if err := solver.Solve(y, 0, dt, dt, false); err != nil {
		// numeric failure: fall back to a single explicit Euler step rather
		// than propagate a stalled solver state into the water balance.
		r := outflowRate(alpha, dStore, d0)
		return math.Max(dStore, d0+(i-r)*dt)
	}
	if y[0] < dStore {
		y[0] = dStore
	}
	return y[0]
}
