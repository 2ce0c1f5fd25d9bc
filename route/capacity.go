// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package route implements flow routing over a network.Network (§4.4-§4.8):
// the storage-node successive-approximation updater, the steady and
// kinematic-wave drivers, a simplified dynamic-wave relaxation solver, and
// the per-tick orchestration that ties them together.
package route

import (
	"math"

	"github.com/cpmech/hydrocore/network"
)

const gravity = 32.2 // ft/s^2

// capacityAtDepth returns a link's flow capacity, ft^3/s, when its upstream
// node stands at the given depth above invert. Every link kind resolves to
// the same q = Beta * f(depth) shape documented on network.Link.Beta
// (q = Beta*A*R^(2/3) at full flow): conduits and pumps evaluate that
// directly against their cross-section, orifices and weirs substitute the
// matching head-driven formula with Beta repurposed as their discharge
// coefficient, and a dummy outlet link simply passes upstream inflow through
// uncapped apart from QFull.
func capacityAtDepth(l *network.Link, depth float64) float64 {
	head := depth - l.Offset1
	if head < 0 {
		head = 0
	}
	var q float64
	switch l.Kind {
	case Conduit, Pump:
		if l.XSect == nil {
			q = l.QFull
			break
		}
		y := head
		if yf := l.XSect.DepthFull(); y > yf {
			y = yf
		}
		a := l.XSect.AreaOfDepth(y)
		r := l.XSect.HydRadius(y)
		q = l.Beta * a * math.Pow(r, 2.0/3.0)
	case Orifice:
		q = l.Beta * l.Setting * math.Sqrt(2*gravity*head)
	case Weir:
		q = l.Beta * l.Setting * math.Pow(head, 1.5)
	case Outlet:
		q = l.QFull
	}
	q *= float64(maxInt(l.Barrels, 1))
	if l.QFull > 0 && q > l.QFull {
		q = l.QFull
	}
	if q < 0 {
		q = 0
	}
	return q
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// link-kind aliases so capacity.go reads without the network. prefix on
// every switch case above.
const (
	Conduit = network.Conduit
	Pump    = network.Pump
	Orifice = network.Orifice
	Weir    = network.Weir
	Outlet  = network.Outlet
)
