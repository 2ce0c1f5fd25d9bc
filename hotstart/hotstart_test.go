// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hotstart

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleState() *State {
	return &State{
		Counts: Counts{NLandUses: 1, NPollut: 1, FlowUnits: 0},
		Subcatch: []SubcatchState{
			{
				PondedDepth:   [3]float64{0.01, 0.02, 0.03},
				Runoff:        1.25,
				Infil:         [6]float64{1, 2, 3, 4, 5, 6},
				RunoffQuality: [][]float64{{0.5, 0.6}},
				LandUse:       []LandUseState{{Buildup: []float64{10}, LastSweep: 86400}},
			},
			{
				PondedDepth:    [3]float64{0, 0, 0.1},
				Runoff:         0,
				Infil:          [6]float64{0, 0, 0, 0, 0, 0},
				HasGroundwater: true,
				Groundwater:    [4]float64{1, 2, 3, 4},
				RunoffQuality:  [][]float64{{0, 0}},
				LandUse:        []LandUseState{{Buildup: []float64{0}, LastSweep: 0}},
			},
		},
		Node: []NodeState{
			{Depth: 2.5, LatFlow: 1.1, Quality: []float64{0.3}},
			{Depth: 3.5, LatFlow: 0, IsStorage: true, HRT: 600, Quality: []float64{0.1}},
			{Depth: 0, LatFlow: 0, Quality: []float64{0}},
		},
		Link: []LinkState{
			{Flow: 5.0, Depth: 1.2, Setting: 1.0, Quality: []float64{0.2}},
			{Flow: 0, Depth: 0, Setting: 0, Quality: []float64{0}},
		},
	}
}

func shapeFor(s *State) Shape {
	hasGW := make([]bool, len(s.Subcatch))
	hasSnow := make([]bool, len(s.Subcatch))
	for i, sub := range s.Subcatch {
		hasGW[i] = sub.HasGroundwater
		hasSnow[i] = sub.HasSnowpack
	}
	isStorage := make([]bool, len(s.Node))
	for i, n := range s.Node {
		isStorage[i] = n.IsStorage
	}
	return Shape{NPollut: 1, NLandUses: 1, HasGroundwater: hasGW, HasSnowpack: hasSnow, IsStorage: isStorage}
}

// Test_save_load_roundtrip exercises Testable Scenario 6: a version-4 save
// followed by a load into a project with identical topology reproduces node
// depths, link flows and storage HRT exactly.
func Test_save_load_roundtrip(t *testing.T) {
	want := sampleState()
	path := filepath.Join(t.TempDir(), "run.hsf")
	require.NoError(t, Save(path, want))

	got, err := Load(path, shapeFor(want))
	require.NoError(t, err)

	require.Equal(t, CurrentVersion, got.Version)
	require.Len(t, got.Node, len(want.Node))
	for i := range want.Node {
		requireClose(t, want.Node[i].Depth, got.Node[i].Depth)
		requireClose(t, float64(want.Node[i].LatFlow), float64(got.Node[i].LatFlow))
		if want.Node[i].IsStorage {
			requireClose(t, want.Node[i].HRT, got.Node[i].HRT)
		}
	}
	require.Len(t, got.Link, len(want.Link))
	for i := range want.Link {
		requireClose(t, want.Link[i].Flow, got.Link[i].Flow)
		requireClose(t, want.Link[i].Depth, got.Link[i].Depth)
	}
	require.Len(t, got.Subcatch, len(want.Subcatch))
	for i := range want.Subcatch {
		requireClose(t, want.Subcatch[i].Runoff, got.Subcatch[i].Runoff)
		for k := range want.Subcatch[i].PondedDepth {
			requireClose(t, want.Subcatch[i].PondedDepth[k], got.Subcatch[i].PondedDepth[k])
		}
	}
}

func Test_nan_aborts_read(t *testing.T) {
	s := sampleState()
	s.Node[0].Depth = math.NaN()
	path := filepath.Join(t.TempDir(), "run.hsf")
	require.NoError(t, Save(path, s))

	_, err := Load(path, shapeFor(s))
	require.Error(t, err)
}

func requireClose(t *testing.T, want, got float64) {
	t.Helper()
	if math.Abs(want-got) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}
