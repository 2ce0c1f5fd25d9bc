// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

// RoutingModel selects the flow-routing algorithm (§4.7, §4.8).
type RoutingModel int

const (
	Steady RoutingModel = iota
	Kinematic
	Dynamic
)

// Network owns every node and link as dense slices referenced by integer
// index; it is allocated once at project open and never grows during a
// simulation (Lifecycle, §3).
type Network struct {
	Nodes []Node
	Links []Link

	StorageData []StorageData
	DividerData []DividerData

	Model RoutingModel

	// adjacency, built by BuildAdjacency: Out[n]/In[n] are link indices
	// with Node1==n / Node2==n respectively.
	Out [][]int
	In  [][]int

	// TopoOrder is the topologically sorted link index array used by the
	// steady and kinematic routing drivers (§3 Routing state, §4.7). It is
	// nil under the dynamic-wave model, which imposes no such ordering.
	TopoOrder []int

	// NonConvergedSteps counts dynamic-wave steps where the node-head
	// relaxation did not reach tolerance within MaxIter (§3 Routing state,
	// §7 Convergence). Non-fatal; surfaced only in the final summary.
	NonConvergedSteps int
}

// NewNetwork returns an empty network sized for the given node/link counts.
// All entity storage is allocated up front, per the Lifecycle and Allocation
// Discipline requirements (§3, §5): the per-step routing path never grows
// these slices.
func NewNetwork(nNodes, nLinks int) *Network {
	return &Network{
		Nodes: make([]Node, nNodes),
		Links: make([]Link, nLinks),
	}
}

// AddStorageData appends a StorageData payload and returns its index.
func (net *Network) AddStorageData(d StorageData) int {
	net.StorageData = append(net.StorageData, d)
	return len(net.StorageData) - 1
}

// AddDividerData appends a DividerData payload and returns its index.
func (net *Network) AddDividerData(d DividerData) int {
	net.DividerData = append(net.DividerData, d)
	return len(net.DividerData) - 1
}

// BuildAdjacency (re)computes Out/In from the current Node1/Node2 of every
// link. It must be called after the network's topology is fully assembled
// and before Validate or any routing step.
func (net *Network) BuildAdjacency() {
	n := len(net.Nodes)
	net.Out = make([][]int, n)
	net.In = make([][]int, n)
	for j := range net.Links {
		l := &net.Links[j]
		net.Out[l.Node1] = append(net.Out[l.Node1], j)
		net.In[l.Node2] = append(net.In[l.Node2], j)
	}
}

// OutDegree returns the number of links leaving node i.
func (net *Network) OutDegree(i int) int { return len(net.Out[i]) }

// ResetStep resets every node's per-tick accumulators (§4.7 step 1).
func (net *Network) ResetStep() {
	for i := range net.Nodes {
		net.Nodes[i].ResetStep()
	}
	for j := range net.Links {
		net.Links[j].ResetStep()
	}
}

// AllUpdated reports whether every node's Updated flag is set, the
// end-of-step invariant checked by Testable Property 5.
func (net *Network) AllUpdated() bool {
	for i := range net.Nodes {
		if !net.Nodes[i].Updated {
			return false
		}
	}
	return true
}
