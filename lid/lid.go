// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package lid exposes the out-of-scope low-impact-development collaborator
// named in §6: GetRunoff(subcatchID, netPrecip, dt, acc) updates
// VlidIn/Out/Infil/Drain on the caller-supplied accumulator. Groundwater is
// similarly a pluggable capability on a subcatchment but is out of scope for
// this core and is represented only as the thin hook subcatch needs to call
// it (GroundwaterSink) so a caller-supplied implementation can be wired
// without the runoff engine depending on its internals. There is no snowpack
// hook; subcatch treats snow as immediate precipitation.
package lid

// Accumulator receives the LID volume terms a runoff tick must fold into its
// water balance (§4.3 step 5). It is the same shape as subcatch's
// RunoffStepContext fields it mutates, kept as an interface so lid stays
// independent of subcatch's package.
type Accumulator interface {
	AddLidIn(v float64)
	AddLidOut(v float64)
	AddLidInfil(v float64)
	AddLidDrain(v float64)
}

// Controls drives installed LID units for one subcatchment over dt, given
// the remaining net precipitation after the three native sub-areas. A
// subcatchment with no LID area should use NoControls.
type Controls interface {
	HasLIDs(subcatchID int) bool
	LidArea(subcatchID int) float64 // area occupied by LID units, ft^2
	GetRunoff(subcatchID int, netPrecip, dt float64, acc Accumulator) (err error)
}

// NoControls is the zero-value Controls: no subcatchment has LID area and
// GetRunoff never contributes any volume.
type NoControls struct{}

func (NoControls) HasLIDs(int) bool       { return false }
func (NoControls) LidArea(int) float64    { return 0 }
func (NoControls) GetRunoff(int, float64, float64, Accumulator) error { return nil }

// GroundwaterSink receives (percolation-zone evap, percolation+LID
// exfiltration) volumes to advance a subcatchment's groundwater table
// (§4.3 step 6). NoGroundwater is the zero-value implementation.
type GroundwaterSink interface {
	Advance(subcatchID int, vPercEvap, vInfilTotal, dt float64)
	UnsaturatedVoidRate(subcatchID int) float64 // caps pervious infiltration
}

type NoGroundwater struct{}

func (NoGroundwater) Advance(int, float64, float64, float64) {}
func (NoGroundwater) UnsaturatedVoidRate(int) float64         { return 1e18 } // effectively uncapped
