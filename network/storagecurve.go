// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/num"
)

// LinearCurve implements V(d) = Coef*d, the simplest storage rating used by
// Testable Scenario 4's linear outflow relation O = k*V.
type LinearCurve struct {
	Coef float64
}

func (c LinearCurve) VolumeAt(depth float64) float64 { return c.Coef * depth }
func (c LinearCurve) DepthAt(volume float64) float64 {
	if c.Coef <= 0 {
		return 0
	}
	return volume / c.Coef
}

// PowerCurve implements V(d) = Coef*d^Expon + Const, SWMM's closed-form
// storage-curve family for simple funnel/cylinder/pyramid shapes.
type PowerCurve struct {
	Coef, Expon, Const float64
}

func (c PowerCurve) VolumeAt(depth float64) float64 {
	if depth < 0 {
		depth = 0
	}
	return c.Coef*math.Pow(depth, c.Expon) + c.Const
}

func (c PowerCurve) DepthAt(volume float64) float64 {
	v := volume - c.Const
	if v <= 0 || c.Coef <= 0 {
		return 0
	}
	return math.Pow(v/c.Coef, 1/c.Expon)
}

// TabulatedCurve implements an irregular depth-volume relation via a
// gosl/fun/dbf piecewise function, matching the way xsect.Tabulated builds
// irregular cross-sections from the same kind of table. DepthAt inverts it
// numerically since a tabulated curve need not be analytically invertible.
type TabulatedCurve struct {
	VolumeOfDepth dbf.T
	MaxDepth      float64
}

func (c TabulatedCurve) VolumeAt(depth float64) float64 {
	if depth < 0 {
		depth = 0
	}
	if depth > c.MaxDepth {
		depth = c.MaxDepth
	}
	return c.VolumeOfDepth.F(depth, nil)
}

func (c TabulatedCurve) DepthAt(volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	var nls num.NlSolver
	defer nls.Clean()
	x := []float64{c.MaxDepth / 2}
	ffcn := func(fx, xv []float64) error {
		d := clampF(xv[0], 0, c.MaxDepth)
		fx[0] = c.VolumeAt(d) - volume
		return nil
	}
	const h = 1e-6
	jfcn := func(J [][]float64, xv []float64) error {
		d := clampF(xv[0], 0, c.MaxDepth)
		J[0][0] = (c.VolumeAt(clampF(d+h, 0, c.MaxDepth)) - c.VolumeAt(clampF(d-h, 0, c.MaxDepth))) / (2 * h)
		if J[0][0] == 0 {
			J[0][0] = 1e-12
		}
		return nil
	}
	nls.Init(1, ffcn, nil, jfcn, true, false, nil)
	if err := nls.Solve(x, true); err != nil {
		chk.Panic("network: storage-curve depth inversion failed: %v", err)
	}
	return clampF(x[0], 0, c.MaxDepth)
}

func clampF(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
