// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package route

import (
	"github.com/cpmech/hydrocore/network"
	"github.com/cpmech/hydrocore/simerr"
)

// Driver runs one routing tick against net, dispatching to the model
// selected by net.Model (§4.7-§4.8). lateralInflow[i] is the externally
// supplied inflow (current subcatchment runoff plus any direct inflow)
// arriving at node i this tick; Driver seeds each node's Inflow accumulator
// with it immediately after resetting, so the per-link pass adds upstream
// link flow on top of it in topological order, exactly as §4.7 step 2's
// "node[n1].outflow += qin; node[link.node2].inflow += qout" expects to find
// lateral inflow already present. For Steady and Kinematic, Driver also
// closes out the bookkeeping those two don't own themselves: closing out any
// node the per-link pass never visits (outfalls are leaves in a tree layout
// and so never appear as a link's upstream node), and finishing every
// conduit's depth/volume/full-state from its converged end areas. Dynamic
// owns all of this internally and is invoked directly.
func Driver(net *network.Network, dt float64, lateralInflow []float64) error {
	if dt <= 0 {
		return simerr.NewNumeric("routing time step is non-positive: %v", dt)
	}

	// ResetStep zeroes Overflow/Inflow/Outflow/Losses and clears Updated
	// (§4.7 step 1); no non-storage node carries a FullVolume today (only
	// storage curves define one), so there is no carried-over overflow to
	// pre-compute before this tick's balance accumulates.
	net.ResetStep()
	for i := range net.Nodes {
		if i < len(lateralInflow) {
			net.Nodes[i].Inflow = lateralInflow[i]
		}
	}

	var err error
	switch net.Model {
	case network.Dynamic:
		return Dynamic(net, dt)
	case network.Kinematic:
		err = Kinematic(net, dt)
	default:
		err = Steady(net, dt)
	}
	if err != nil {
		return err
	}

	closeOutUnvisitedNodes(net, dt)
	finishConduits(net)

	for i := range net.Nodes {
		net.Nodes[i].Updated = true
	}
	return nil
}

// closeOutUnvisitedNodes midpoint-integrates volume (§4.7 step 3) for every
// node the per-link pass left !Updated -- principally outfalls, which have
// out-degree 0 under tree-layout routing and so are never the upstream node
// of any link in TopoOrder, but also any isolated node with no incident
// links at all.
func closeOutUnvisitedNodes(net *network.Network, dt float64) {
	for i := range net.Nodes {
		n := &net.Nodes[i]
		if n.Updated {
			continue
		}
		if n.Kind == network.Storage {
			// terminal storage: UpdateStorage with an empty outgoing-link
			// set still runs the full successive-approximation solve,
			// it just never finds outflow capacity to sum (§4.4).
			if err := UpdateStorage(net, i, n.Inflow, dt); err == nil {
				continue
			}
		}
		netInflow := n.Inflow - n.Outflow - n.Losses
		vol := n.OldVolume + 0.5*(n.OldNetInflow+netInflow)*dt
		if vol < 0 {
			vol = 0
		}
		full := n.FullVolume(net)
		if full > 0 && vol > full {
			n.Overflow = (vol - full) / dt
			vol = full
		}
		n.NewVolume = vol
		n.OldNetInflow = netInflow
		if full > 0 {
			n.NewDepth = depthOfVolume(net, i, vol)
		} else if n.Inflow > 0 || n.OldDepth > 0 {
			// non-storage terminal node (typically an outfall): depth
			// tracks the upstream conduit's depth, pushed up by
			// finishConduits; nothing further to resolve here.
			n.NewDepth = n.OldDepth
		}
		n.Updated = true
	}
}

func depthOfVolume(net *network.Network, i int, vol float64) float64 {
	n := &net.Nodes[i]
	if n.Kind != network.Storage {
		return n.NewDepth
	}
	return net.StorageData[n.StorageIdx].Curve.DepthAt(vol)
}

// finishConduits implements §4.7 step 4: every conduit's NewDepth/NewVolume
// are derived from its converged end areas, its upstream node's depth is
// pushed up (never down, never past FullDepth) to reflect the conduit's
// inlet depth, and the full-flow state machine / capacity-limited flag are
// set from how close the end areas sit to AreaFull.
func finishConduits(net *network.Network) {
	for j := range net.Links {
		l := &net.Links[j]
		if l.Kind != network.Conduit || l.XSect == nil {
			continue
		}
		y1 := l.XSect.DepthOfArea(l.A1)
		y2 := l.XSect.DepthOfArea(l.A2)
		l.NewDepth = 0.5 * (y1 + y2)
		l.NewVolume = l.PondableVolume()

		up := &net.Nodes[l.Node1]
		if y1 > up.NewDepth {
			if y1 > up.FullDepth {
				y1 = up.FullDepth
			}
			up.NewDepth = y1
		}

		aFull := l.XSect.AreaFull()
		const fullTol = 1e-4
		upFull := aFull > 0 && l.A1 >= aFull*(1-fullTol)
		dnFull := aFull > 0 && l.A2 >= aFull*(1-fullTol)
		switch {
		case upFull && dnFull:
			l.FullStateFlag = network.AllFull
		case upFull:
			l.FullStateFlag = network.UpFull
		case dnFull:
			l.FullStateFlag = network.DnFull
		default:
			l.FullStateFlag = network.NotFull
		}
		if upFull || dnFull {
			l.CapacityLimited = true
		}
	}
}
