// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package route

import (
	"math"

	"github.com/cpmech/hydrocore/network"
)

// Kinematic routes flow through the network using an explicit kinematic-wave
// storage update per conduit (§4.6): conduit j stores a working flow area
// l.A1, advanced each sub-step by dA/dt = (Qin-Qout)/Length with
// Qout = Beta*A*R(A)^(2/3), the same Manning-conveyance shape
// capacityAtDepth uses for steady routing. Storage and divider nodes reuse
// the steady-routing logic every sub-step. The sub-step count is one value
// shared by the whole pass — the arithmetic mean of each conduit's own
// Courant-limited count, rounded, floor 1 (§9 Open Questions) — rather than
// a per-link adaptive count, trading some accuracy on the fastest-responding
// conduit for a single, predictable stepping loop.
func Kinematic(net *network.Network, dt float64) error {
	n := courantSubSteps(net, dt)
	subDt := dt / float64(n)

	lateral := make([]float64, len(net.Nodes))
	for i := range net.Nodes {
		lateral[i] = net.Nodes[i].Inflow
	}
	flowVol := make([]float64, len(net.Links))
	nodeInVol := make([]float64, len(net.Nodes))

	for s := 0; s < n; s++ {
		for i := range net.Nodes {
			net.Nodes[i].Inflow = lateral[i] / float64(n)
			net.Nodes[i].Updated = false
		}
		for _, j := range net.TopoOrder {
			l := &net.Links[j]
			up := &net.Nodes[l.Node1]
			if up.Updated {
				continue
			}
			switch up.Kind {
			case network.Storage:
				if err := UpdateStorage(net, l.Node1, up.Inflow, subDt); err != nil {
					return err
				}
				for _, oj := range net.Out[l.Node1] {
					flowVol[oj] += net.Links[oj].NewFlow * subDt
				}
			case network.Divider:
				routeDivider(net, l.Node1)
				for _, oj := range net.Out[l.Node1] {
					flowVol[oj] += net.Links[oj].NewFlow * subDt
				}
			default:
				qOut := stepConduitStorage(l, up.Inflow, subDt, up.FullDepth)
				up.Outflow += qOut
				up.Updated = true
				net.Nodes[l.Node2].Inflow += qOut
				flowVol[j] += qOut * subDt
			}
		}
		for i := range net.Nodes {
			nodeInVol[i] += net.Nodes[i].Inflow * subDt
		}
	}

	for j := range net.Links {
		if flowVol[j] > 0 {
			net.Links[j].NewFlow = flowVol[j] / dt
		}
	}
	for i := range net.Nodes {
		net.Nodes[i].Inflow = nodeInVol[i] / dt
	}
	return nil
}

// stepConduitStorage advances a single conduit's stored flow area by one
// kinematic-wave sub-step and returns the outflow it produced. Non-conduit,
// non-storage, non-divider links (pumps, orifices, weirs, dummy outlets)
// fall back to the instantaneous capacity-at-depth pass-through used by
// steady routing, since they have no meaningful in-barrel storage.
func stepConduitStorage(l *network.Link, qIn, subDt, upFullDepth float64) float64 {
	if l.Kind != network.Conduit || l.XSect == nil || l.Length <= 0 {
		cap := capacityAtDepth(l, upFullDepth)
		if l.QFull > 0 && cap > l.QFull {
			cap = l.QFull
		}
		q := qIn
		if cap > 0 && q > cap {
			q = cap
			l.CapacityLimited = true
		}
		l.NewFlow = q
		return q
	}
	area := l.A1
	depth := l.XSect.DepthOfArea(area)
	r := l.XSect.HydRadius(depth)
	qOut := l.Beta * area * math.Pow(math.Max(r, 0), 2.0/3.0)
	if l.QFull > 0 && qOut > l.QFull {
		qOut = l.QFull
		l.CapacityLimited = true
	}
	newArea := area + (subDt/l.Length)*(qIn-qOut)
	if newArea < 0 {
		newArea = 0
	}
	if af := l.XSect.AreaFull(); newArea > af {
		newArea = af
	}
	l.A1 = newArea
	l.A2 = newArea
	l.NewDepth = l.XSect.DepthOfArea(newArea)
	return qOut
}

// courantSubSteps resolves the shared sub-step count for one kinematic-wave
// pass: each conduit's own count is ceil(dt / (Length/waveSpeed)), using the
// kinematic wave celerity (5/3)*QFull/AreaFull as the characteristic speed;
// the pass uses the rounded arithmetic mean across all conduits, floor 1.
func courantSubSteps(net *network.Network, dt float64) int {
	var sum float64
	count := 0
	for j := range net.Links {
		l := &net.Links[j]
		if l.Kind != network.Conduit || l.XSect == nil || l.Length <= 0 {
			continue
		}
		aFull := l.XSect.AreaFull()
		if aFull <= 0 || l.QFull <= 0 {
			continue
		}
		waveSpeed := (5.0 / 3.0) * l.QFull / aFull
		if waveSpeed <= 0 {
			continue
		}
		travel := l.Length / waveSpeed
		if travel <= 0 {
			continue
		}
		sum += math.Ceil(dt / travel)
		count++
	}
	if count == 0 {
		return 1
	}
	n := int(math.Round(sum / float64(count)))
	if n < 1 {
		n = 1
	}
	return n
}
