// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package route

import (
	"math"

	"github.com/cpmech/hydrocore/network"
)

// Under-relaxation parameters for the storage-node successive-approximation
// solver (§4.4). These are deliberately NOT promoted to a full Newton
// iteration (Design Notes §9): the teacher's own successive-approximation
// element updates (ele's non-linear sub-stepping) converge the same way, and
// the preserved values reproduce the seed scenarios' iteration counts.
const (
	storageOmega   = 0.55
	storageMaxIter = 10
	storageStopTol = 0.005
)

// UpdateStorage advances one storage node's depth/volume by dt given its
// total lateral+upstream inflow, using successive approximation with
// under-relaxation: guess a new depth, evaluate outflow capacity at that
// depth, update volume by the same trapezoidal (midpoint) balance every
// other node in the network uses -- V2 = V1 + 0.5*(oldNetInflow + inflow -
// outflow)*dt (§4.4, §4.7 step 3) -- relax the guess toward the implied
// depth, and stop once the relaxed depth changes by no more than
// storageStopTol (absolute, ft). Outflow is apportioned across a storage
// node's outgoing links in proportion to each one's capacityAtDepth at the
// converged depth.
func UpdateStorage(net *network.Network, nodeIdx int, inflow, dt float64) error {
	node := &net.Nodes[nodeIdx]
	data := &net.StorageData[node.StorageIdx]

	vol0 := data.Curve.VolumeAt(node.OldDepth)
	guess := node.OldDepth
	var outflow, netInflow float64

	for iter := 0; iter < storageMaxIter; iter++ {
		outflow = totalOutflowCapacity(net, nodeIdx, guess)
		netInflow = inflow - outflow
		vol1 := vol0 + 0.5*(node.OldNetInflow+netInflow)*dt
		if vol1 < 0 {
			vol1 = 0
		}
		target, _ := depthForVolume(node, data, vol1)
		next := guess + storageOmega*(target-guess)
		if next < 0 {
			next = 0
		}
		converged := math.Abs(next-guess) <= storageStopTol
		guess = next
		if converged {
			break
		}
	}

	outflow = totalOutflowCapacity(net, nodeIdx, guess)
	netInflow = inflow - outflow
	volFinal := vol0 + 0.5*(node.OldNetInflow+netInflow)*dt
	if volFinal < 0 {
		volFinal = 0
		outflow = inflow + vol0/dt
		netInflow = inflow - outflow
	}
	depth, overflowVol := depthForVolume(node, data, volFinal)
	node.Overflow = overflowVol / dt

	node.NewDepth = depth
	node.NewVolume = volFinal
	node.Outflow = outflow
	node.OldNetInflow = netInflow
	apportionOutflow(net, nodeIdx, depth, outflow)
	node.Updated = true
	return nil
}

// depthForVolume inverts the storage curve, spilling any volume above
// FullDepth's curve capacity across PondedArea when ponding is allowed, or
// reporting it as an overflow volume (a continuity-accounted loss)
// otherwise. It is pure — called repeatedly as the iteration's guess
// changes — so the overflow volume is returned rather than accumulated
// directly onto node.Overflow; only the converged call's result should be
// kept.
func depthForVolume(node *network.Node, data *network.StorageData, vol float64) (depth, overflowVol float64) {
	fullVol := data.Curve.VolumeAt(node.FullDepth)
	if vol <= fullVol {
		return data.Curve.DepthAt(vol), 0
	}
	excess := vol - fullVol
	if data.AllowPonding && data.PondedArea > 0 {
		return node.FullDepth + excess/data.PondedArea, 0
	}
	return node.FullDepth, excess
}

// totalOutflowCapacity sums capacityAtDepth over every link leaving the node.
func totalOutflowCapacity(net *network.Network, nodeIdx int, depth float64) float64 {
	var q float64
	for _, j := range net.Out[nodeIdx] {
		q += capacityAtDepth(&net.Links[j], depth)
	}
	return q
}

// apportionOutflow distributes a storage node's converged total outflow
// across its outgoing links in proportion to each link's own capacity share.
func apportionOutflow(net *network.Network, nodeIdx int, depth, totalOutflow float64) {
	out := net.Out[nodeIdx]
	if len(out) == 0 {
		return
	}
	caps := make([]float64, len(out))
	var sum float64
	for i, j := range out {
		caps[i] = capacityAtDepth(&net.Links[j], depth)
		sum += caps[i]
	}
	for i, j := range out {
		l := &net.Links[j]
		if sum > 0 {
			l.NewFlow = totalOutflow * caps[i] / sum
		} else {
			l.NewFlow = 0
		}
		l.CapacityLimited = l.NewFlow >= l.QFull && l.QFull > 0
		net.Nodes[l.Node2].Inflow += l.NewFlow
	}
}
