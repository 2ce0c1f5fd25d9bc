// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subcatch

import (
	"math"

	"github.com/cpmech/hydrocore/climate"
	"github.com/cpmech/hydrocore/infil"
	"github.com/cpmech/hydrocore/lid"
	"github.com/cpmech/hydrocore/massbal"
)

// Collaborators bundles the out-of-scope collaborators a runoff tick needs
// (§6): a rain gage, a potential-evaporation series, an infiltration model,
// LID controls, a groundwater sink, and a mass-balance accumulator. Gage and
// Evap must be set; Step skips infiltration, LID, groundwater or
// mass-balance reporting when Infil, Lid, GW or MassBal is nil.
// lid.NoControls{} and lid.NoGroundwater{} are the explicit null-object
// stand-ins for Lid and GW.
type Collaborators struct {
	Gage    climate.GageSource
	Evap    climate.Evaporation
	Infil   infil.Model
	Lid     lid.Controls
	GW      lid.GroundwaterSink
	MassBal massbal.Sink

	WetStep float64 // reporting step while rain is falling or ponded water remains, seconds
	DryStep float64 // reporting step once the subcatchment has gone dry, seconds
}

// ComputeAlpha returns the kinematic coefficient 1.49*W*sqrt(S)/(n*A) for a
// sub-area of the given fraction of a subcatchment's non-LID area (§3).
// n == 0 yields 0, the sentinel the ODE integrator reads as instantaneous
// spill.
func ComputeAlpha(n, width, slope, areaFrac, nonLidArea float64) float64 {
	if n <= 0 {
		return 0
	}
	a := areaFrac * nonLidArea
	if a <= 0 {
		return 0
	}
	return 1.49 * width * math.Sqrt(slope) / (n * a)
}

// SelectTimeStep picks the runoff reporting interval for a subcatchment at
// time t: WetStep while rain is falling or any sub-area still holds ponded
// water above its depression storage, DryStep otherwise — clamped so it
// never overruns the next evaporation-rate change or the simulation's end
// (§4.3's time-step-selection contract).
func SelectTimeStep(c *Collaborators, sub *Subcatchment, t, endTime float64) float64 {
	rain, snow := c.Gage.PrecipAt(sub.Gage, t)
	wet := rain > 0 || snow > 0
	if !wet {
		for k := range sub.Subareas {
			if sub.Subareas[k].Depth > sub.Subareas[k].DStore {
				wet = true
				break
			}
		}
	}
	dt := c.DryStep
	if wet {
		dt = c.WetStep
	}
	if dt <= 0 {
		dt = 300
	}
	if nc := c.Evap.NextChange(t); nc > t && nc-t < dt {
		dt = nc - t
	}
	if endTime-t < dt {
		dt = endTime - t
	}
	if dt < 0 {
		dt = 0
	}
	return dt
}

// Step advances one subcatchment's runoff state by dt starting at time t,
// following the per-sub-area sequence of §4.3: apply precipitation and
// evaporation, infiltrate the pervious sub-area, integrate each sub-area's
// ponded depth, re-route PERV's un-routed fraction to IMPERV1 (one tick
// late, per the preserved PERV->IMPERV1 lag), run LID and groundwater, then
// total the weighted runoff into sub.NewRunoff (cfs) and report the tick's
// volumes through c.MassBal. It returns the populated RunoffStepContext for
// callers that want the individual volume terms (e.g. a continuity report).
func Step(sub *Subcatchment, subID int, t, dt float64, c *Collaborators) (*RunoffStepContext, error) {
	ctx := NewRunoffStepContext()
	if dt <= 0 {
		return ctx, nil
	}

	rain, snow := c.Gage.PrecipAt(sub.Gage, t)
	precip := rain + snow // snowmelt dynamics are out of scope; snow is treated as immediate precipitation
	evapRate := c.Evap.RateAt(t)
	nonLid := sub.NonLidArea()

	// carry forward whatever a sibling sub-area routed here last tick
	// (e.g. PERV->IMPERV1), then clear it so this tick can set up the next —
	// the preserved one-tick lag for inter-sub-area re-routing.
	var lagged [3]float64
	for k := range sub.Subareas {
		lagged[k] = sub.Subareas[k].pendingInflow
		sub.Subareas[k].pendingInflow = 0
	}

	var totalRunoffRate float64 // ft^3/s, weighted across sub-areas
	for k := range sub.Subareas {
		kind := SubareaKind(k)
		a := &sub.Subareas[k]
		if a.FracArea <= 0 {
			a.Depth, a.Runoff = 0, 0
			continue
		}
		areaFt2 := a.FracArea * nonLid

		inflow := precip
		if areaFt2 > 0 && lagged[k] != 0 {
			inflow += lagged[k] / areaFt2
		}

		// evaporation reduces the available inflow, never driving it negative.
		evap := math.Min(evapRate, inflow+a.Depth/dt)
		inflow -= evap
		if inflow < 0 {
			inflow = 0
		}
		ctx.Vevap += evap * areaFt2 * dt
		if kind == Perv {
			ctx.Vpevap += evap * areaFt2 * dt
		}

		if kind == Perv && c.Infil != nil {
			ponded := a.Depth * areaFt2
			rate, err := c.Infil.Rate(subID, precip, ponded, dt, &sub.InfilState)
			if err != nil {
				return ctx, err
			}
			if c.GW != nil {
				if cap := c.GW.UnsaturatedVoidRate(subID); rate > cap {
					rate = cap
				}
			}
			if rate > inflow {
				rate = inflow
			}
			inflow -= rate
			ctx.Vinfil += rate * areaFt2 * dt
		}

		a.Inflow = inflow
		UpdatePondedDepth(a, dt)

		routed := a.Runoff * a.FracRouted
		toOutlet := a.Runoff - routed
		switch a.Target {
		case ToImperv:
			sub.Subareas[Imperv1].pendingInflow += routed * areaFt2
		case ToPerv:
			sub.Subareas[Perv].pendingInflow += routed * areaFt2
		default:
			toOutlet = a.Runoff
		}
		totalRunoffRate += toOutlet * areaFt2
	}

	ctx.Voutflow = totalRunoffRate * dt

	if c.Lid != nil && c.Lid.HasLIDs(subID) {
		netPrecip := precip - evapRate
		if netPrecip < 0 {
			netPrecip = 0
		}
		if err := c.Lid.GetRunoff(subID, netPrecip, dt, ctx); err != nil {
			return ctx, err
		}
	}

	if c.GW != nil {
		c.GW.Advance(subID, ctx.Vpevap, ctx.Vinfil+ctx.VlidInfil, dt)
	}

	// §4.3 step 7: the LID module's volumes fold into the outflow rate here
	// rather than at the sub-area loop above -- VlidIn is water diverted
	// into LID units (so it leaves the non-LID outflow it was counted
	// under), VlidOut is LID surface runoff rejoining the outlet. VlidDrain
	// (LID underdrain flow) is tracked for mass balance but is not part of
	// this rate, matching the spec's formula exactly.
	newRunoff := (ctx.Voutflow - ctx.VlidIn + ctx.VlidOut) / dt
	sub.OldRunoff = sub.NewRunoff
	sub.NewRunoff = newRunoff
	sub.HadRunoffLastTick = newRunoff > 0

	if c.MassBal != nil {
		c.MassBal.UpdateRunoff("in", precip*nonLid*dt)
		c.MassBal.UpdateRunoff("losses", ctx.Vevap+ctx.Vinfil+ctx.VlidInfil)
		c.MassBal.UpdateRunoff("out", newRunoff*dt+ctx.VlidDrain)
	}

	return ctx, nil
}
