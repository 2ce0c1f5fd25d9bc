// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subcatch

// BuildupModel accumulates pollutant mass on a subcatchment's land-use areas
// between runoff events (§4.3 step 8's out-of-scope collaborator). One call
// per (landuse, pollutant) pair per tick, the way the teacher's WithIntVars
// elements advance one internal variable at a time rather than a bulk tensor
// update.
type BuildupModel interface {
	AddBuildup(subID, landuse, pollutant int, dt float64, current float64) (newMass float64)
}

// WashoffModel computes the pollutant washoff rate given the current runoff
// rate and the mass available for washoff (§4.3 step 8).
type WashoffModel interface {
	WashoffRate(subID, landuse, pollutant int, runoffRate, availableMass float64) (rate float64)
}

// UpdateQuality advances buildup on every (landuse, pollutant) cell and, only
// while the subcatchment is producing runoff, records each pollutant's
// washoff rate in sub.Washoff; the buildup mass is not reduced by washoff.
// It is a no-op when build is nil, letting a quality-free simulation skip
// step 8 entirely rather than requiring null-object stand-ins for a feature
// most runs don't use; with a nil wash, buildup still advances but no
// washoff rate is recorded.
func UpdateQuality(sub *Subcatchment, subID int, dt float64, build BuildupModel, wash WashoffModel) {
	if build == nil || len(sub.Buildup) == 0 {
		return
	}
	nPolls := 0
	if len(sub.Buildup) > 0 {
		nPolls = len(sub.Buildup[0])
	}
	if len(sub.Washoff) != nPolls {
		sub.Washoff = make([]float64, nPolls)
	}
	for lu := range sub.Buildup {
		for p := range sub.Buildup[lu] {
			sub.Buildup[lu][p] = build.AddBuildup(subID, lu, p, dt, sub.Buildup[lu][p])
		}
	}
	if wash == nil || sub.NewRunoff <= 0 {
		return
	}
	for p := 0; p < nPolls; p++ {
		var available float64
		for lu := range sub.Buildup {
			available += sub.Buildup[lu][p]
		}
		rate := wash.WashoffRate(subID, -1, p, sub.NewRunoff, available)
		if rate < 0 {
			rate = 0
		}
		sub.Washoff[p] = rate
	}
}
