// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package route

import "github.com/cpmech/hydrocore/network"

// Steady routes flow through the network in topological order (§4.5): every
// non-storage node passes its accumulated inflow straight through to its
// single outgoing link (capped at that link's capacity, with any excess
// recorded as Overflow), and every storage node goes through
// UpdateStorage's successive-approximation solve. There is no travel time or
// storage effect at junctions — flow arrives and leaves within the same
// instant, the defining simplification of steady-flow routing.
func Steady(net *network.Network, dt float64) error {
	for _, j := range net.TopoOrder {
		l := &net.Links[j]
		up := &net.Nodes[l.Node1]
		if up.Updated {
			continue // this node's outflow was already fully routed
		}
		switch up.Kind {
		case network.Storage:
			if err := UpdateStorage(net, l.Node1, up.Inflow, dt); err != nil {
				return err
			}
		case network.Divider:
			routeDivider(net, l.Node1)
		default:
			routeSingleOutlet(net, l.Node1, l)
		}
	}
	return nil
}

// routeSingleOutlet passes a non-storage, non-divider node's entire inflow
// to its sole outgoing link, capping at capacity and recording any excess as
// Overflow.
func routeSingleOutlet(net *network.Network, nodeIdx int, l *network.Link) {
	up := &net.Nodes[nodeIdx]
	q := up.Inflow
	cap := capacityAtDepth(l, up.FullDepth)
	if l.QFull > 0 && cap > l.QFull {
		cap = l.QFull
	}
	if cap > 0 && q > cap {
		up.Overflow += q - cap
		q = cap
		l.CapacityLimited = true
	}
	l.NewFlow = q
	up.Outflow += q
	up.Updated = true
	net.Nodes[l.Node2].Inflow += q
}

// routeDivider splits a divider node's inflow between its main link and its
// diversion link per DividerData.CutoffFlow: inflow at or below the cutoff
// passes entirely to the main link; inflow above it sends the excess to the
// diversion link (§3 Divider).
func routeDivider(net *network.Network, nodeIdx int) {
	up := &net.Nodes[nodeIdx]
	dd := net.DividerData[up.DividerIdx]
	out := net.Out[nodeIdx]
	var mainLink, divertLink *network.Link
	for _, j := range out {
		if j == dd.DivertLink {
			divertLink = &net.Links[j]
		} else {
			mainLink = &net.Links[j]
		}
	}
	q := up.Inflow
	diverted := 0.0
	if q > dd.CutoffFlow {
		diverted = q - dd.CutoffFlow
	}
	main := q - diverted
	if mainLink != nil {
		mainLink.NewFlow = main
		net.Nodes[mainLink.Node2].Inflow += main
	}
	if divertLink != nil {
		divertLink.NewFlow = diverted
		net.Nodes[divertLink.Node2].Inflow += diverted
	}
	up.Outflow += q
	up.Updated = true
}
