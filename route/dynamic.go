// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package route

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/hydrocore/network"
)

// Dynamic wave parameters. MaxIter/Tol bound the damped Jacobi-style
// node-head relaxation; Omega damps each sweep the same way storage.go
// damps its own successive approximation, reused here per Design Notes §9
// rather than inventing a second relaxation scheme for the one model that
// tolerates general (looped, multi-outlet) topology.
const (
	dynamicMaxIter = 40
	dynamicTol     = 1e-4
	dynamicOmega   = 0.6
)

// Dynamic routes flow through a general (possibly looped) network by
// iteratively relaxing every node's head toward the value that balances its
// continuity equation, given the current flow estimate on every incident
// link. Each sweep assembles one diagonal Jacobian entry per node into a
// sparse system (gosl/la.Triplet, the same sparse-matrix type the teacher's
// element routines assemble their stiffness contributions into with
// AddToKb): d(residual_i)/d(head_i), combining the node's own storage
// capacitance with the local outflow sensitivity of its outgoing links. The
// assembled triplet is converted to a gosl/la.CCMatrix and applied with
// gosl/la.SpMatVecMulAdd against a ones vector to recover that diagonal,
// the same assemble-then-apply split the teacher's essential-BC matrix
// (fem/essenbcs.go's A/Am) uses, rather than reaching into the triplet's
// entries directly. The system is not factored, it is solved by damped
// Jacobi-style sweeps dividing each node's residual by its own diagonal --
// a full simultaneous Newton solve of the St. Venant equations is out of
// scope (§6) -- this is a reference relaxation, not a hydraulically
// complete dynamic-wave engine. When gosl/mpi reports more than one rank,
// each rank sweeps a disjoint slice of nodes and the driver is expected to
// reduce across ranks; with a single rank (the common case) this degrades
// to a sequential sweep.
func Dynamic(net *network.Network, dt float64) error {
	n := len(net.Nodes)
	heads := make([]float64, n)
	for i := range net.Nodes {
		heads[i] = net.Nodes[i].Invert + net.Nodes[i].OldDepth
	}
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}

	converged := false
	for iter := 0; iter < dynamicMaxIter; iter++ {
		var trip la.Triplet
		trip.Init(n, n, n+1)
		resid := make([]float64, n)

		lo, hi := 0, n
		if mpi.IsOn() {
			lo, hi = mpiSlice(n, mpi.Rank(), mpi.Size())
		}

		for i := lo; i < hi; i++ {
			node := &net.Nodes[i]
			net_ := net.Out[i]
			inflow := node.Inflow
			for _, j := range net.In[i] {
				l := &net.Links[j]
				inflow += capacityAtDepth(l, heads[l.Node1]-net.Nodes[l.Node1].Invert)
			}
			outflow := 0.0
			for _, j := range net_ {
				l := &net.Links[j]
				outflow += capacityAtDepth(l, heads[i]-node.Invert)
			}
			resid[i] = inflow - outflow
			diag := storageAreaAt(net, i)/dt + outflowSlope(net, i, heads[i])
			if diag <= 0 {
				diag = 1e-6
			}
			trip.Put(i, i, diag)
		}

		am := trip.ToMatrix(nil)
		diagOut := make([]float64, n)
		la.SpMatVecMulAdd(diagOut, 1, am, ones)

		var maxResid float64
		for i := lo; i < hi; i++ {
			if r := math.Abs(resid[i]); r > maxResid {
				maxResid = r
			}
			if diagOut[i] <= 0 {
				continue
			}
			dHead := dynamicOmega * resid[i] / diagOut[i]
			heads[i] += dHead
			if heads[i] < net.Nodes[i].Invert {
				heads[i] = net.Nodes[i].Invert
			}
		}
		if maxResid < dynamicTol*1000 { // cfs tolerance scaled from the head tolerance
			converged = true
			break
		}
	}
	if !converged {
		// non-fatal per §7: a dynamic-wave node failed to converge this
		// step. Counted, not propagated as an error.
		net.NonConvergedSteps++
	}

	for i := range net.Nodes {
		node := &net.Nodes[i]
		node.NewDepth = heads[i] - node.Invert
		if node.NewDepth < 0 {
			node.NewDepth = 0
		}
		node.NewVolume = storageVolumeAt(net, i, node.NewDepth)
		node.Updated = true
	}
	for j := range net.Links {
		l := &net.Links[j]
		up := &net.Nodes[l.Node1]
		q := capacityAtDepth(l, up.NewDepth)
		l.NewFlow = q
		up.Outflow += q
		net.Nodes[l.Node2].Inflow += q
	}
	return nil
}

// storageAreaAt returns the free-surface area a node presents to a head
// change: a storage node's curve slope dV/dh (approximated by a small
// central difference), or a nominal 1 ft^2 for junctions/dividers/outfalls,
// which this reference relaxation treats as having negligible surface
// storage compared to explicit storage nodes.
func storageAreaAt(net *network.Network, i int) float64 {
	node := &net.Nodes[i]
	if node.Kind != network.Storage {
		return 1
	}
	curve := net.StorageData[node.StorageIdx].Curve
	const h = 1e-3
	d := node.OldDepth
	return math.Max((curve.VolumeAt(d+h)-curve.VolumeAt(d-h))/(2*h), 1e-6)
}

// outflowSlope estimates d(outflow)/d(head) at node i by central difference
// over every outgoing link's capacityAtDepth, the diagonal contribution the
// node's own head makes to its residual's Jacobian.
func outflowSlope(net *network.Network, i int, head float64) float64 {
	node := &net.Nodes[i]
	const h = 1e-3
	var plus, minus float64
	for _, j := range net.Out[i] {
		l := &net.Links[j]
		plus += capacityAtDepth(l, head+h-node.Invert)
		minus += capacityAtDepth(l, head-h-node.Invert)
	}
	slope := (plus - minus) / (2 * h)
	if slope < 0 {
		slope = 0
	}
	return slope
}

func storageVolumeAt(net *network.Network, i int, depth float64) float64 {
	node := &net.Nodes[i]
	if node.Kind != network.Storage {
		return 0
	}
	return net.StorageData[node.StorageIdx].Curve.VolumeAt(depth)
}

// mpiSlice partitions [0,n) into mpi.Size() contiguous chunks and returns
// rank's own [lo,hi), mirroring the teacher's domain-decomposition slicing
// for element loops gated by mpi.IsOn()/mpi.Rank().
func mpiSlice(n, rank, size int) (lo, hi int) {
	if size <= 0 {
		size = 1
	}
	chunk := (n + size - 1) / size
	lo = rank * chunk
	hi = lo + chunk
	if lo > n {
		lo = n
	}
	if hi > n {
		hi = n
	}
	return
}
