// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package climate exposes the out-of-scope rain-gage and evaporation
// collaborators named in §6: GageSource.PrecipAt(gage, t) and
// Evaporation.RateAt(t)/NextChange(t). A minimal time-series-backed
// implementation is provided so the runoff engine can be driven end to end
// in tests; real deployments would supply their own implementation reading
// an input-file time series.
package climate

import "github.com/cpmech/gosl/fun"

// GageSource is the monotone-time rain-gage access contract.
type GageSource interface {
	// PrecipAt returns (rain, snow) rate in ft/s at time t (seconds) for gage.
	PrecipAt(gage int, t float64) (rain, snow float64)
}

// Evaporation is the potential-evaporation access contract.
type Evaporation interface {
	RateAt(t float64) float64     // current evaporation rate, ft/s
	NextChange(t float64) float64 // time of the next rate change, seconds
}

// SeriesGage is a GageSource backed by one fun.Func per gage, the way the
// teacher wires external time series as fun.Func callables (e.g. dbf.T
// tables) rather than hand-rolled interpolation.
type SeriesGage struct {
	Rain map[int]fun.Func
	Snow map[int]fun.Func
}

// NewSeriesGage returns an empty series-backed gage source.
func NewSeriesGage() *SeriesGage {
	return &SeriesGage{Rain: map[int]fun.Func{}, Snow: map[int]fun.Func{}}
}

func (g *SeriesGage) PrecipAt(gage int, t float64) (rain, snow float64) {
	if f, ok := g.Rain[gage]; ok {
		rain = f.F(t, nil)
	}
	if f, ok := g.Snow[gage]; ok {
		snow = f.F(t, nil)
	}
	return
}

// StepEvap is an Evaporation source whose rate is piecewise-constant over a
// sorted list of (time, rate) breakpoints — enough to exercise the
// next-evap-change clamp in the runoff time-step selector (§4.3).
type StepEvap struct {
	Times []float64
	Rates []float64
}

func (e *StepEvap) RateAt(t float64) float64 {
	if len(e.Times) == 0 {
		return 0
	}
	idx := 0
	for i, bt := range e.Times {
		if bt <= t {
			idx = i
		} else {
			break
		}
	}
	return e.Rates[idx]
}

func (e *StepEvap) NextChange(t float64) float64 {
	for _, bt := range e.Times {
		if bt > t {
			return bt
		}
	}
	return t + 1e12 // effectively "never"
}
