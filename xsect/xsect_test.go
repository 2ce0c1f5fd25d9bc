// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xsect

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func checkClose(t *testing.T, name string, tol, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > tol {
		t.Fatalf("%s: got %v, want %v (tol %v)", name, actual, expected, tol)
	}
}

func Test_circular_full(tst *testing.T) {
	chk.PrintTitle("circular_full")
	c := &Circular{Diam: 2.0}
	checkClose(tst, "AreaFull", 1e-9, c.AreaFull(), math.Pi)
	checkClose(tst, "AreaOfDepth(YFull)", 1e-9, c.AreaOfDepth(2.0), c.AreaFull())
	checkClose(tst, "AreaOfDepth(0)", 1e-9, c.AreaOfDepth(0), 0)
	checkClose(tst, "AreaOfDepth(YFull/2)", 1e-9, c.AreaOfDepth(1.0), c.AreaFull()/2)
}

func Test_circular_monotone_roundtrip(tst *testing.T) {
	chk.PrintTitle("circular_monotone_roundtrip")
	c := &Circular{Diam: 1.5}
	for _, y := range []float64{0.1, 0.5, 0.75, 1.0, 1.49} {
		a := c.AreaOfDepth(y)
		y2 := c.DepthOfArea(a)
		checkClose(tst, "depth roundtrip", 1e-6, y2, y)
	}
}

func Test_rectangular(tst *testing.T) {
	chk.PrintTitle("rectangular")
	r := &Rectangular{Width: 2, YFull: 3}
	checkClose(tst, "AreaFull", 1e-12, r.AreaFull(), 6)
	checkClose(tst, "AreaOfDepth(1.5)", 1e-12, r.AreaOfDepth(1.5), 3)
	checkClose(tst, "DepthOfArea(3)", 1e-12, r.DepthOfArea(3), 1.5)
}

func Test_trapezoidal_roundtrip(tst *testing.T) {
	chk.PrintTitle("trapezoidal_roundtrip")
	tz := &Trapezoidal{BotWidth: 2, SideSlope: 1.5, YFull: 4}
	for _, y := range []float64{0.2, 1.0, 2.5, 3.9} {
		a := tz.AreaOfDepth(y)
		y2 := tz.DepthOfArea(a)
		checkClose(tst, "depth roundtrip", 1e-6, y2, y)
	}
}

func Test_section_factor_inversion(tst *testing.T) {
	chk.PrintTitle("section_factor_inversion")
	c := &Circular{Diam: 1.0}
	y := 0.6
	a := c.AreaOfDepth(y)
	r := c.HydRadius(y)
	s := a * math.Pow(r, 2.0/3.0)
	a2 := c.AreaOfSectionFactor(s)
	checkClose(tst, "area-of-section-factor", 1e-4, a2, a)
}

func Test_zero_area_no_divide_by_zero(tst *testing.T) {
	chk.PrintTitle("zero_area_no_divide_by_zero")
	r := &Rectangular{Width: 0, YFull: 2}
	y := r.DepthOfArea(0)
	checkClose(tst, "zero width depth", 0, y, 0)
}
