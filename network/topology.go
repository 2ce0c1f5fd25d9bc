// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import "github.com/cpmech/hydrocore/simerr"

// Validate runs the rule set appropriate to net.Model: ValidateTreeLayout for
// Steady/Kinematic, ValidateGeneralLayout for Dynamic (Design Notes §9: two
// validator functions, chosen by routing-model selection, consulting the
// same topology data). It also (re)computes TopoOrder for the tree-layout
// models, since the topological sort and the tree-layout rules share the
// same node-outdegree bookkeeping.
func (net *Network) Validate() error {
	if err := net.requireOutfall(); err != nil {
		return err
	}
	if err := net.validateRegulators(); err != nil {
		return err
	}
	switch net.Model {
	case Dynamic:
		return net.ValidateGeneralLayout()
	default:
		return net.ValidateTreeLayout()
	}
}

func (net *Network) requireOutfall() error {
	for i := range net.Nodes {
		if net.Nodes[i].Kind == Outfall {
			return nil
		}
	}
	return simerr.NewTopology("network has no outfall node")
}

// validateRegulators enforces "regulator not on storage": an Orifice or Weir
// must either originate at a Storage node or be the sole outgoing link of
// its upstream node — the two configurations under which a regulator's
// head-flow relation is well posed without additional branching rules.
func (net *Network) validateRegulators() error {
	for j := range net.Links {
		l := &net.Links[j]
		if l.Kind != Orifice && l.Kind != Weir {
			continue
		}
		up := &net.Nodes[l.Node1]
		if up.Kind == Storage {
			continue
		}
		if net.OutDegree(l.Node1) == 1 {
			continue
		}
		return simerr.NewTopology("regulator link %q is not on a storage node and is not its upstream node's sole outlet", l.ID)
	}
	return nil
}

// ValidateTreeLayout enforces the out-degree and exclusivity invariants for
// Steady/Kinematic routing (§3 Invariants) and computes TopoOrder.
func (net *Network) ValidateTreeLayout() error {
	for i := range net.Nodes {
		n := &net.Nodes[i]
		deg := net.OutDegree(i)
		switch n.Kind {
		case Outfall:
			if deg > 0 {
				return simerr.NewTopology("outfall %q has an outgoing link", n.ID)
			}
		case Storage:
			// storage nodes may have any out-degree
		case Divider:
			if deg > 2 {
				return simerr.NewTopology("divider %q has more than two outlets", n.ID)
			}
		default: // Junction
			if deg > 1 {
				return simerr.NewTopology("node %q has multiple outlets under tree-layout routing", n.ID)
			}
		}
		for _, j := range net.Out[i] {
			l := &net.Links[j]
			exclusive := l.Kind == Outlet || (l.Kind == Pump && l.XSect == nil)
			if exclusive && deg > 1 {
				return simerr.NewTopology("dummy link or ideal pump %q must be the sole outlet of node %q", l.ID, n.ID)
			}
		}
	}
	if err := net.checkAdverseSlopes(); err != nil {
		return err
	}
	order, err := net.topoSortLinks()
	if err != nil {
		return err
	}
	net.TopoOrder = order
	return nil
}

// checkAdverseSlopes rejects a conduit with a non-DUMMY cross-section whose
// downstream invert (at its offset) is higher than its upstream invert,
// under the kinematic-wave model (boundary behavior, §8).
func (net *Network) checkAdverseSlopes() error {
	if net.Model != Kinematic {
		return nil
	}
	for j := range net.Links {
		l := &net.Links[j]
		if l.Kind != Conduit || l.XSect == nil {
			continue
		}
		z1 := net.Nodes[l.Node1].Invert + l.Offset1
		z2 := net.Nodes[l.Node2].Invert + l.Offset2
		if z2 > z1 {
			return simerr.NewTopology("conduit %q has adverse slope under kinematic-wave routing", l.ID)
		}
	}
	return nil
}

// ValidateGeneralLayout enforces the (looser) rule set for dynamic-wave
// routing: it tolerates loops and multiple outlets, but still requires every
// regulator rule and at least one outfall (checked by Validate's shared
// prelude). TopoOrder is left nil — the dynamic solver imposes no ordering.
func (net *Network) ValidateGeneralLayout() error {
	net.TopoOrder = nil
	return nil
}

// topoSortLinks returns a Kahn's-algorithm topological order over nodes,
// expanded into a link-index order by appending each node's outgoing links
// in visitation order — upstream links first, matching the routing driver's
// "links[0..M) upstream to downstream" processing contract (§4.7).
func (net *Network) topoSortLinks() ([]int, error) {
	n := len(net.Nodes)
	indeg := make([]int, n)
	for j := range net.Links {
		indeg[net.Links[j].Node2]++
	}
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]int, 0, len(net.Links))
	visited := 0
	indegWork := append([]int(nil), indeg...)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		visited++
		for _, j := range net.Out[i] {
			order = append(order, j)
			d := net.Links[j].Node2
			indegWork[d]--
			if indegWork[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	if visited != n {
		return nil, simerr.NewTopology("network topology contains a cycle; tree-layout routing requires an acyclic graph")
	}
	return order, nil
}
