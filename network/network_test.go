// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import (
	"testing"

	"github.com/cpmech/hydrocore/xsect"
	"github.com/stretchr/testify/require"
)

// twoNodeOneConduit builds J0 --conduit--> outfall(1), used by several
// routing-driver tests in package route as well as here.
func twoNodeOneConduit() *Network {
	net := NewNetwork(2, 1)
	net.Nodes[0] = Node{Kind: Junction, ID: "J0", FullDepth: 10}
	net.Nodes[1] = Node{Kind: Outfall, ID: "OUT1"}
	net.Links[0] = Link{
		Kind: Conduit, ID: "C1", Node1: 0, Node2: 1, Direction: 1,
		XSect: &xsect.Circular{Diam: 2}, Length: 400, Barrels: 1,
		QFull: 10, AreaFull: (&xsect.Circular{Diam: 2}).AreaFull(), Beta: 20,
	}
	net.BuildAdjacency()
	return net
}

func Test_topo_sort_simple_chain(t *testing.T) {
	net := twoNodeOneConduit()
	net.Model = Kinematic
	require.NoError(t, net.Validate())
	require.Equal(t, []int{0}, net.TopoOrder)
}

func Test_multiple_outlets_rejected_under_tree_layout(t *testing.T) {
	net := NewNetwork(3, 2)
	net.Nodes[0] = Node{Kind: Junction, ID: "J0"}
	net.Nodes[1] = Node{Kind: Outfall, ID: "OUT1"}
	net.Nodes[2] = Node{Kind: Outfall, ID: "OUT2"}
	net.Links[0] = Link{Kind: Conduit, ID: "C1", Node1: 0, Node2: 1, XSect: &xsect.Circular{Diam: 1}}
	net.Links[1] = Link{Kind: Conduit, ID: "C2", Node1: 0, Node2: 2, XSect: &xsect.Circular{Diam: 1}}
	net.BuildAdjacency()
	net.Model = Steady
	require.Error(t, net.Validate())
}

func Test_no_outfall_rejected(t *testing.T) {
	net := NewNetwork(2, 1)
	net.Nodes[0] = Node{Kind: Junction, ID: "J0"}
	net.Nodes[1] = Node{Kind: Junction, ID: "J1"}
	net.Links[0] = Link{Kind: Conduit, ID: "C1", Node1: 0, Node2: 1, XSect: &xsect.Circular{Diam: 1}}
	net.BuildAdjacency()
	require.Error(t, net.Validate())
}

func Test_adverse_slope_rejected_under_kinematic(t *testing.T) {
	net := NewNetwork(2, 1)
	net.Nodes[0] = Node{Kind: Junction, ID: "J0", Invert: 0}
	net.Nodes[1] = Node{Kind: Outfall, ID: "OUT1", Invert: 5} // higher than upstream
	net.Links[0] = Link{Kind: Conduit, ID: "C1", Node1: 0, Node2: 1, XSect: &xsect.Circular{Diam: 1}}
	net.BuildAdjacency()
	net.Model = Kinematic
	require.Error(t, net.Validate())
}

func Test_dividers_allow_two_outlets(t *testing.T) {
	net := NewNetwork(3, 2)
	net.Nodes[0] = Node{Kind: Divider, ID: "D0"}
	net.Nodes[1] = Node{Kind: Outfall, ID: "OUT1"}
	net.Nodes[2] = Node{Kind: Outfall, ID: "OUT2"}
	net.Links[0] = Link{Kind: Conduit, ID: "C1", Node1: 0, Node2: 1, XSect: &xsect.Circular{Diam: 1}}
	net.Links[1] = Link{Kind: Conduit, ID: "C2", Node1: 0, Node2: 2, XSect: &xsect.Circular{Diam: 1}}
	net.BuildAdjacency()
	net.Model = Steady
	require.NoError(t, net.Validate())
}

func Test_general_layout_tolerates_loop(t *testing.T) {
	net := NewNetwork(3, 3)
	net.Nodes[0] = Node{Kind: Junction, ID: "J0"}
	net.Nodes[1] = Node{Kind: Junction, ID: "J1"}
	net.Nodes[2] = Node{Kind: Outfall, ID: "OUT1"}
	net.Links[0] = Link{Kind: Conduit, ID: "C1", Node1: 0, Node2: 1, XSect: &xsect.Circular{Diam: 1}}
	net.Links[1] = Link{Kind: Conduit, ID: "C2", Node1: 1, Node2: 0, XSect: &xsect.Circular{Diam: 1}} // loop
	net.Links[2] = Link{Kind: Conduit, ID: "C3", Node1: 1, Node2: 2, XSect: &xsect.Circular{Diam: 1}}
	net.BuildAdjacency()
	net.Model = Dynamic
	require.NoError(t, net.Validate())
}

func Test_reset_step_clears_flags(t *testing.T) {
	net := twoNodeOneConduit()
	net.Nodes[0].Updated = true
	net.Nodes[0].Overflow = 3
	net.ResetStep()
	require.False(t, net.Nodes[0].Updated)
	require.Equal(t, 0.0, net.Nodes[0].Overflow)
}
