// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subcatch

// RunoffStepContext is the per-tick scratch accumulator threaded through one
// subcatchment's runoff step (§4.3, Design Notes §9): a single value
// constructed fresh at the top of each tick and passed by reference to every
// collaborator that contributes a volume term, the way the teacher threads a
// single *fem.Domain through one time step rather than re-deriving shared
// state from each element in isolation.
type RunoffStepContext struct {
	Vevap     float64 // total evaporation volume this tick, ft^3
	Vpevap    float64 // evaporation drawn from the pervious subarea only, ft^3
	Vinfil    float64 // infiltration volume this tick, ft^3
	Voutflow  float64 // runoff volume leaving the subcatchment this tick, ft^3

	VlidIn    float64 // volume entering LID units
	VlidInfil float64 // volume infiltrated by LID units
	VlidOut   float64 // surface runoff leaving LID units
	VlidDrain float64 // underdrain flow leaving LID units
}

// NewRunoffStepContext returns a zeroed context for one tick.
func NewRunoffStepContext() *RunoffStepContext { return &RunoffStepContext{} }

// AddLidIn, AddLidOut, AddLidInfil and AddLidDrain implement lid.Accumulator,
// letting a lid.Controls implementation fold its volumes directly into the
// tick context; lid never imports subcatch, since lid's Accumulator
// interface is satisfied structurally.
func (c *RunoffStepContext) AddLidIn(v float64)    { c.VlidIn += v }
func (c *RunoffStepContext) AddLidOut(v float64)   { c.VlidOut += v }
func (c *RunoffStepContext) AddLidInfil(v float64) { c.VlidInfil += v }
func (c *RunoffStepContext) AddLidDrain(v float64) { c.VlidDrain += v }
