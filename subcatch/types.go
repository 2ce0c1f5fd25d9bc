// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package subcatch implements the runoff engine: the sub-area ponded-depth
// ODE integrator (§4.2) and the per-subcatchment runoff step that drives it
// (§4.3). Subcatchments are held by the caller (sim.Project.Subcatchments)
// and referenced by integer index, mirroring network's entity-graph
// discipline (Design Notes §9).
package subcatch

import (
	"github.com/cpmech/hydrocore/infil"
)

// SubareaKind discriminates the three homogeneous fractions of a
// subcatchment named in §3.
type SubareaKind int

const (
	Imperv0 SubareaKind = iota // impervious, no depression storage
	Imperv1                    // impervious, with depression storage
	Perv                       // pervious
)

// RouteTarget names where a sub-area's un-routed runoff fraction goes.
type RouteTarget int

const (
	ToOutlet RouteTarget = iota
	ToImperv
	ToPerv
)

// Subarea is a homogeneous fraction of a subcatchment (§3 Sub-area).
type Subarea struct {
	FracArea  float64 // fraction of subcatchment area, sums to 1 across the 3
	N         float64 // Manning's n
	DStore    float64 // depression-storage depth, ft
	Target    RouteTarget
	FracRouted float64 // fraction of runoff sent to Target, rest to outlet when Target != ToOutlet

	Alpha float64 // kinematic coefficient = 1.49*W/A*sqrt(S)/n; 0 disables the ODE path

	Depth   float64 // current ponded depth D, ft
	Inflow  float64 // accumulated inflow rate for this tick, ft/s
	Runoff  float64 // runoff rate r(D) at end of tick, ft/s

	// pendingInflow carries the one-tick lag for inter-subarea re-routing
	// (§4.3 step 4, §9 Open Questions): runoff leaving PERV this tick is
	// injected into IMPERV1's Inflow only on the *next* tick.
	pendingInflow float64
}

// Subcatchment is a surface hydrologic unit (§3 Subcatchment).
type Subcatchment struct {
	ID string

	Area       float64 // ft^2
	Width      float64
	Slope      float64
	FracImperv float64 // in [0,1]
	Gage       int

	OutletIsSubcatch bool // true: Outlet indexes another Subcatchment; false: a network node
	Outlet           int

	Subareas [3]Subarea // indexed by SubareaKind

	InfilState infil.State

	OldRunoff, NewRunoff float64 // cfs
	OldSnowDepth, NewSnowDepth float64

	LidAreaFrac float64 // fraction of Area occupied by LID units, [0,1]

	Buildup [][]float64 // [landuse][pollutant] accumulated mass
	Washoff []float64   // [pollutant] current washoff concentration/rate state
	LastSweep []float64 // [landuse] time of last street sweep, seconds

	HadRunoffLastTick bool
}

// NonLidArea returns the area not occupied by LID controls.
func (s *Subcatchment) NonLidArea() float64 {
	return s.Area * (1 - s.LidAreaFrac)
}

// FracPerv returns the pervious fraction of the subcatchment, 1-FracImperv.
func (s *Subcatchment) FracPerv() float64 { return 1 - s.FracImperv }
