// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package xsect implements cross-section geometry for conduits: area as a
// function of depth, depth as a function of area, and area as a function of
// the Manning section factor s = A*R^(2/3). All three are monotone on
// [0, YFull] for every shape below. Shapes are consumed opaquely by the
// route package through the Section interface (§6, out-of-scope collaborator
// "xs_area_of_y, xs_y_of_area, xs_area_of_s").
package xsect

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/num"
)

// Section is the geometry contract every conduit cross-section implements.
type Section interface {
	AreaOfDepth(y float64) float64          // A(y)
	DepthOfArea(a float64) float64          // y(A), inverse of AreaOfDepth
	AreaOfSectionFactor(s float64) float64  // A(s), s = A*R^(2/3)
	AreaFull() float64                      // A at y = YFull
	DepthFull() float64                     // YFull
	HydRadius(y float64) float64            // R(y) = A(y)/P(y)
}

// Circular is a full-flowing circular pipe of diameter Diam.
type Circular struct {
	Diam float64
}

func (c *Circular) DepthFull() float64 { return c.Diam }
func (c *Circular) AreaFull() float64  { return math.Pi * c.Diam * c.Diam / 4 }

func (c *Circular) AreaOfDepth(y float64) float64 {
	y = clamp(y, 0, c.Diam)
	r := c.Diam / 2
	if y >= c.Diam {
		return math.Pi * r * r
	}
	theta := 2 * math.Acos(1-y/r)
	return r * r * (theta - math.Sin(theta)) / 2
}

func (c *Circular) wettedPerim(y float64) float64 {
	y = clamp(y, 0, c.Diam)
	r := c.Diam / 2
	if y <= 0 {
		return 0
	}
	theta := 2 * math.Acos(1-y/r)
	return r * theta
}

func (c *Circular) HydRadius(y float64) float64 {
	p := c.wettedPerim(y)
	if p <= 0 {
		return 0
	}
	return c.AreaOfDepth(y) / p
}

func (c *Circular) DepthOfArea(a float64) float64 {
	aFull := c.AreaFull()
	a = clamp(a, 0, aFull)
	if a <= 0 {
		return 0
	}
	if a >= aFull {
		return c.Diam
	}
	return invertMonotone(func(y float64) float64 { return c.AreaOfDepth(y) }, a, 0, c.Diam)
}

func (c *Circular) AreaOfSectionFactor(s float64) float64 {
	return areaOfSectionFactorGeneric(c, s)
}

// Rectangular is an open or closed rectangular channel of constant Width and
// full depth YFull.
type Rectangular struct {
	Width, YFull float64
}

func (r *Rectangular) DepthFull() float64 { return r.YFull }
func (r *Rectangular) AreaFull() float64  { return r.Width * r.YFull }

func (r *Rectangular) AreaOfDepth(y float64) float64 {
	y = clamp(y, 0, r.YFull)
	return r.Width * y
}

func (r *Rectangular) DepthOfArea(a float64) float64 {
	if r.Width <= 0 {
		return 0
	}
	return clamp(a/r.Width, 0, r.YFull)
}

func (r *Rectangular) HydRadius(y float64) float64 {
	y = clamp(y, 0, r.YFull)
	p := r.Width + 2*y
	if p <= 0 {
		return 0
	}
	return r.AreaOfDepth(y) / p
}

func (r *Rectangular) AreaOfSectionFactor(s float64) float64 {
	return areaOfSectionFactorGeneric(r, s)
}

// Trapezoidal is an open channel with bottom width BotWidth and equal side
// slopes SideSlope (horizontal:vertical), up to full depth YFull.
type Trapezoidal struct {
	BotWidth, SideSlope, YFull float64
}

func (t *Trapezoidal) DepthFull() float64 { return t.YFull }
func (t *Trapezoidal) AreaFull() float64  { return t.AreaOfDepth(t.YFull) }

func (t *Trapezoidal) AreaOfDepth(y float64) float64 {
	y = clamp(y, 0, t.YFull)
	return (t.BotWidth + t.SideSlope*y) * y
}

func (t *Trapezoidal) DepthOfArea(a float64) float64 {
	aFull := t.AreaFull()
	a = clamp(a, 0, aFull)
	if a <= 0 {
		return 0
	}
	if t.SideSlope <= 0 {
		return clamp(a/t.BotWidth, 0, t.YFull)
	}
	// solve SideSlope*y^2 + BotWidth*y - a = 0 for the positive root.
	disc := t.BotWidth*t.BotWidth + 4*t.SideSlope*a
	y := (-t.BotWidth + math.Sqrt(disc)) / (2 * t.SideSlope)
	return clamp(y, 0, t.YFull)
}

func (t *Trapezoidal) HydRadius(y float64) float64 {
	y = clamp(y, 0, t.YFull)
	p := t.BotWidth + 2*y*math.Sqrt(1+t.SideSlope*t.SideSlope)
	if p <= 0 {
		return 0
	}
	return t.AreaOfDepth(y) / p
}

func (t *Trapezoidal) AreaOfSectionFactor(s float64) float64 {
	return areaOfSectionFactorGeneric(t, s)
}

// Tabulated is an irregular shape whose normalized area-depth and
// perimeter-depth relations are supplied as piecewise functions, the way the
// teacher's mdl/retention curves are built from dbf.T-backed tables instead
// of closed forms. AreaN and WetPN take y/YFull and return A/AreaFull and
// P/AreaFull^0.5 respectively, SWMM's normalized-curve convention for
// irregular cross-sections.
type Tabulated struct {
	AreaN, WetPN    dbf.T
	YFullV, AreaV   float64
}

func (s *Tabulated) DepthFull() float64 { return s.YFullV }
func (s *Tabulated) AreaFull() float64  { return s.AreaV }

func (s *Tabulated) AreaOfDepth(y float64) float64 {
	y = clamp(y, 0, s.YFullV)
	if s.YFullV <= 0 {
		return 0
	}
	yn := y / s.YFullV
	return s.AreaN.F(yn, nil) * s.AreaV
}

func (s *Tabulated) DepthOfArea(a float64) float64 {
	aFull := s.AreaFull()
	a = clamp(a, 0, aFull)
	if a <= 0 {
		return 0
	}
	return invertMonotone(func(y float64) float64 { return s.AreaOfDepth(y) }, a, 0, s.YFullV)
}

func (s *Tabulated) HydRadius(y float64) float64 {
	y = clamp(y, 0, s.YFullV)
	if s.YFullV <= 0 {
		return 0
	}
	yn := y / s.YFullV
	wp := s.WetPN.F(yn, nil) * math.Sqrt(s.AreaV)
	if wp <= 0 {
		return 0
	}
	return s.AreaOfDepth(y) / wp
}

func (s *Tabulated) AreaOfSectionFactor(sf float64) float64 {
	return areaOfSectionFactorGeneric(s, sf)
}

// areaOfSectionFactorGeneric inverts s = A(y)*R(y)^(2/3) over y in
// [0, YFull] with invertMonotone's clamped Newton iteration, since the section factor is monotone on that
// interval for every realistic shape but not, in general, available in
// closed form (this is the same opaque-table-inversion idiom the teacher's
// retention curves use num/ode machinery for instead of hand-rolled
// closed-form algebra).
func areaOfSectionFactorGeneric(sec Section, s float64) float64 {
	if s <= 0 {
		return 0
	}
	yFull := sec.DepthFull()
	sFull := sectionFactor(sec, yFull)
	if s >= sFull {
		return sec.AreaFull()
	}
	y := invertMonotone(func(y float64) float64 { return sectionFactor(sec, y) }, s, 0, yFull)
	return sec.AreaOfDepth(y)
}

// invertMonotone solves f(y) = target for y in [lo, hi] where f is monotone
// non-decreasing, using a scalar Newton iteration (gosl/num.NlSolver with a
// single unknown and a centered-difference Jacobian), the same n=1 pattern
// the teacher uses in ana.PressCylin.Calc_c to invert its elastic/plastic
// transition radius.
func invertMonotone(f func(y float64) float64, target, lo, hi float64) float64 {
	var nls num.NlSolver
	defer nls.Clean()
	x0 := []float64{(lo + hi) / 2}
	ffcn := func(fx, x []float64) error {
		y := clamp(x[0], lo, hi)
		fx[0] = f(y) - target
		return nil
	}
	const h = 1e-6
	jfcn := func(J [][]float64, x []float64) error {
		y := clamp(x[0], lo, hi)
		J[0][0] = (f(clamp(y+h, lo, hi)) - f(clamp(y-h, lo, hi))) / (2 * h)
		if J[0][0] == 0 {
			J[0][0] = 1e-12
		}
		return nil
	}
	nls.Init(1, ffcn, nil, jfcn, true, false, nil)
	if err := nls.Solve(x0, true); err != nil {
		chk.Panic("xsect: monotone inversion failed: %v", err)
	}
	return clamp(x0[0], lo, hi)
}

func sectionFactor(sec Section, y float64) float64 {
	a := sec.AreaOfDepth(y)
	r := sec.HydRadius(y)
	return a * math.Pow(r, 2.0/3.0)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
