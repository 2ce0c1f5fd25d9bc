// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"
	"math"
	"testing"

	"github.com/cpmech/hydrocore/climate"
	"github.com/cpmech/hydrocore/infil"
	"github.com/cpmech/hydrocore/lid"
	"github.com/cpmech/hydrocore/network"
	"github.com/cpmech/hydrocore/subcatch"
	"github.com/cpmech/hydrocore/xsect"
	"github.com/stretchr/testify/require"
)

// constantGage rains at a fixed rate from every gage, forever -- the same
// fixture subcatch's own tests use for steady-state runoff.
type constantGage struct{ rate float64 }

func (g constantGage) PrecipAt(gage int, t float64) (rain, snow float64) { return g.rate, 0 }

// buildSteadyProject assembles one fully-impervious subcatchment draining
// into J0 --conduit--> OUT1 under the steady-flow routing model (Testable
// Scenario 2/3's topology), rained on at a fixed rate.
func buildSteadyProject(rainRate float64) (*Project, *subcatch.Subcatchment) {
	net := network.NewNetwork(2, 1)
	net.Nodes[0] = network.Node{Kind: network.Junction, ID: "J0", FullDepth: 10}
	net.Nodes[1] = network.Node{Kind: network.Outfall, ID: "OUT1"}
	net.Links[0] = network.Link{
		Kind: network.Conduit, ID: "C1", Node1: 0, Node2: 1, Direction: 1,
		XSect: &xsect.Circular{Diam: 2}, Length: 400, Barrels: 1,
		QFull: 20, AreaFull: (&xsect.Circular{Diam: 2}).AreaFull(), Beta: 20,
	}
	net.BuildAdjacency()
	net.Model = network.Steady

	const acreToFt2 = 43560.0
	area := 1.0 * acreToFt2
	width := math.Sqrt(area)
	sub := &subcatch.Subcatchment{
		ID: "S1", Area: area, Width: width, Slope: 0.01, FracImperv: 1, Gage: 0,
		OutletIsSubcatch: false, Outlet: 0,
	}
	sub.Subareas[subcatch.Imperv0] = subcatch.Subarea{
		FracArea: 1, N: 0.01, DStore: 0, Target: subcatch.ToOutlet,
		Alpha: subcatch.ComputeAlpha(0.01, width, 0.01, 1, sub.NonLidArea()),
	}

	p := NewProject(net)
	p.Subcatchments = []*subcatch.Subcatchment{sub}
	p.Collab = &subcatch.Collaborators{
		Gage:    constantGage{rate: rainRate},
		Evap:    &climate.StepEvap{},
		Infil:   infil.NewHorton(0, 0, 1),
		Lid:     lid.NoControls{},
		GW:      lid.NoGroundwater{},
		MassBal: p.MassBal,
		WetStep: 30, DryStep: 600,
	}
	p.FixedRoutingStep = 30
	return p, sub
}

// Test_steady_flow_subcatchment_to_outfall exercises Testable Scenario 2:
// rain on one impervious subcatchment reaches the outfall through a single
// conduit once the system reaches steady state, and the global continuity
// error stays small.
func Test_steady_flow_subcatchment_to_outfall(t *testing.T) {
	const inPerHrToFtPerSec = (1.0 / 12.0) / 3600.0
	p, sub := buildSteadyProject(1.0 * inPerHrToFtPerSec)
	require.NoError(t, p.ResolveOutlets())
	require.Equal(t, 0, p.SubOutletNode[0])

	p.StartTime = 0
	p.EndTime = 3 * 3600 // 3 hours, long enough to reach steady state
	p.ReportPeriod = 600

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Greater(t, sum.Steps, 0)

	expectedRunoff := 1.0 * inPerHrToFtPerSec * sub.Area
	requireFloatClose(t, expectedRunoff, sub.NewRunoff, 0.05*expectedRunoff)

	l := &p.Network.Links[0]
	requireFloatClose(t, expectedRunoff, l.NewFlow, 0.1*expectedRunoff)

	require.Less(t, math.Abs(sum.ContinuityError), 0.05)
}

// Test_capacity_clamp_caps_outflow exercises Testable Scenario 3: a conduit
// undersized for the incoming runoff clamps flow at QFull and records
// overflow at the upstream node rather than exceeding capacity.
func Test_capacity_clamp_caps_outflow(t *testing.T) {
	const inPerHrToFtPerSec = (1.0 / 12.0) / 3600.0
	p, _ := buildSteadyProject(4.0 * inPerHrToFtPerSec) // heavy rain
	p.Network.Links[0].QFull = 0.5                      // undersized conduit
	require.NoError(t, p.ResolveOutlets())

	p.StartTime = 0
	p.EndTime = 3 * 3600
	p.ReportPeriod = 600

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	l := &p.Network.Links[0]
	require.LessOrEqual(t, l.NewFlow, l.QFull*1.001)
	require.Greater(t, p.Network.Nodes[0].Overflow, 0.0)
}

// Test_resolve_outlets_rejects_cycle exercises the cycle-detection path
// ResolveOutlets adds on top of subcatch's own topology-free model.
func Test_resolve_outlets_rejects_cycle(t *testing.T) {
	net := network.NewNetwork(1, 0)
	net.Nodes[0] = network.Node{Kind: network.Outfall, ID: "OUT1"}
	p := NewProject(net)
	p.Subcatchments = []*subcatch.Subcatchment{
		{ID: "A", OutletIsSubcatch: true, Outlet: 1},
		{ID: "B", OutletIsSubcatch: true, Outlet: 0},
	}
	err := p.ResolveOutlets()
	require.Error(t, err)
}

func requireFloatClose(t *testing.T, want, got, tol float64) {
	t.Helper()
	if math.Abs(want-got) > math.Abs(tol) {
		t.Fatalf("got %v, want %v (tol %v)", got, want, tol)
	}
}
