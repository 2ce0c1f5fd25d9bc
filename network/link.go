// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import "github.com/cpmech/hydrocore/xsect"

// LinkKind discriminates the five link variants named in §3.
type LinkKind int

const (
	Conduit LinkKind = iota
	Pump
	Orifice
	Weir
	Outlet
)

func (k LinkKind) String() string {
	switch k {
	case Conduit:
		return "CONDUIT"
	case Pump:
		return "PUMP"
	case Orifice:
		return "ORIFICE"
	case Weir:
		return "WEIR"
	case Outlet:
		return "OUTLET"
	default:
		return "UNKNOWN"
	}
}

// FullState enumerates a conduit's fullness state machine (§3 Link attributes).
type FullState int

const (
	NotFull FullState = iota
	UpFull
	DnFull
	AllFull
)

// Link is the tagged entity for a conduit, pump, orifice, weir, or outlet.
type Link struct {
	Kind LinkKind
	ID   string

	Node1, Node2 int // upstream/downstream node indices into Network.Nodes
	Direction    int // +1 or -1; captures topologically reversed storage (§3 invariant)

	Offset1, Offset2 float64 // link invert offset above each node's invert

	XSect xsect.Section // nil for links whose flow solver ignores geometry (e.g. ideal pump)

	Length  float64 // conduits only
	Barrels int     // parallel-barrel count, >= 1
	Beta    float64 // Manning conveyance factor; q = Beta * A * R^(2/3) at full flow
	QFull   float64 // full-flow capacity, cfs
	AreaFull float64

	A1, A2 float64 // end areas (inlet/outlet) from the kinematic-wave solver
	Q1, Q2 float64 // end flows

	Setting       float64 // current control setting, in [0,1]
	TargetSetting float64

	NewFlow, OldFlow   float64 // sign convention: positive = Node1 -> Node2
	NewDepth           float64
	NewVolume          float64

	FullStateFlag    FullState
	CapacityLimited  bool

	Roughness float64 // Manning's n, conduits

	Conc []float64 // per-pollutant concentration, flow-weighted
}

// Alpha returns the kinematic-wave conveyance coefficient
// α = (1.49*W/A)*sqrt(S)/n evaluated with the conduit's own Beta (which the
// caller is expected to have set to 1.49*sqrt(S)/n when the link was built);
// it returns Beta unchanged. route/kinematic.go reads l.Beta directly rather
// than calling this accessor.
func (l *Link) Alpha() float64 { return l.Beta }

// PondableVolume returns mean(a1, a2) * length * barrels, the per-link
// volume contribution used to set a conduit's NewVolume in §4.7 step 4.
func (l *Link) PondableVolume() float64 {
	if l.Kind != Conduit {
		return 0
	}
	return 0.5 * (l.A1 + l.A2) * l.Length * float64(l.Barrels)
}

// ResetStep clears the capacity-limited flag; Setting and TargetSetting are
// left as they are, and NewFlow/A1/A2 are overwritten by the solver every
// tick so they need no reset here.
func (l *Link) ResetStep() {
	l.CapacityLimited = false
}
