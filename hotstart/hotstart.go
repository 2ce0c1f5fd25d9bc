// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package hotstart implements the versioned binary save/resume state file
// (§6 Hot-start file format): an ASCII stamp plus version, entity counts,
// and then one fixed-shape record per subcatchment, node and link. Readers
// accept versions 1..4 and upgrade in memory; any NaN encountered while
// reading aborts with a read-error, per the spec's explicit NaN-abort rule.
package hotstart

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/cpmech/hydrocore/simerr"
)

// CurrentVersion is the stamp this package writes; readers accept 1..4.
const CurrentVersion = 4

const stampPrefix = "SWMM5-HOTSTART"

// Counts mirrors the int32 counts written right after the stamp+version.
type Counts struct {
	NSubcatch int32
	NLandUses int32
	NNodes    int32
	NLinks    int32
	NPollut   int32
	FlowUnits int32
}

// SubcatchState is one subcatchment's saved state (version >= 3 layout).
type SubcatchState struct {
	PondedDepth [3]float64 // Imperv0, Imperv1, Perv
	Runoff      float64
	Infil       [6]float64 // opaque infiltration-model state, 6 doubles

	HasGroundwater bool
	Groundwater    [4]float64

	HasSnowpack bool
	Snowpack    [3][5]float64

	RunoffQuality [][]float64 // [pollutant] runoff concentration + ponded concentration, 2*nPollut doubles flattened as pairs
	LandUse       []LandUseState
}

// LandUseState is one (subcatchment, land use) buildup record.
type LandUseState struct {
	Buildup   []float64 // [pollutant]
	LastSweep float64
}

// NodeState is one node's saved state.
type NodeState struct {
	Depth     float64
	LatFlow   float32
	IsStorage bool
	HRT       float64 // version >= 4 only; ignored (zero) on earlier versions
	Quality   []float64
}

// LinkState is one link's saved state.
type LinkState struct {
	Flow    float64
	Depth   float64
	Setting float32
	Quality []float64
}

// State is the full decoded contents of a hot-start file.
type State struct {
	Version   int
	Counts    Counts
	Subcatch  []SubcatchState
	Node      []NodeState
	Link      []LinkState
}

// Save writes state to path using CurrentVersion's layout.
func Save(path string, s *State) error {
	f, err := os.Create(path)
	if err != nil {
		return simerr.NewIO("hotstart: cannot create %q: %v", path, err)
	}
	defer f.Close()

	order := binary.NativeEndian
	stamp := fmt.Sprintf("%s%d", stampPrefix, CurrentVersion)
	if _, err := f.Write([]byte(stamp)); err != nil {
		return simerr.NewIO("hotstart: stamp write failed: %v", err)
	}

	s.Counts.NSubcatch = int32(len(s.Subcatch))
	s.Counts.NNodes = int32(len(s.Node))
	s.Counts.NLinks = int32(len(s.Link))
	for _, v := range []int32{s.Counts.NSubcatch, s.Counts.NLandUses, s.Counts.NNodes, s.Counts.NLinks, s.Counts.NPollut, s.Counts.FlowUnits} {
		if err := binary.Write(f, order, v); err != nil {
			return simerr.NewIO("hotstart: counts write failed: %v", err)
		}
	}

	for _, sub := range s.Subcatch {
		if err := writeSubcatch(f, order, sub); err != nil {
			return err
		}
	}
	for _, n := range s.Node {
		if err := writeNode(f, order, n); err != nil {
			return err
		}
	}
	for _, l := range s.Link {
		if err := writeLink(f, order, l); err != nil {
			return err
		}
	}
	return nil
}

func writeDoubles(f *os.File, order binary.ByteOrder, vs ...float64) error {
	for _, v := range vs {
		if err := binary.Write(f, order, v); err != nil {
			return simerr.NewIO("hotstart: write failed: %v", err)
		}
	}
	return nil
}

func writeSubcatch(f *os.File, order binary.ByteOrder, sub SubcatchState) error {
	if err := writeDoubles(f, order, sub.PondedDepth[0], sub.PondedDepth[1], sub.PondedDepth[2], sub.Runoff); err != nil {
		return err
	}
	if err := writeDoubles(f, order, sub.Infil[:]...); err != nil {
		return err
	}
	if sub.HasGroundwater {
		if err := writeDoubles(f, order, sub.Groundwater[:]...); err != nil {
			return err
		}
	}
	if sub.HasSnowpack {
		for _, row := range sub.Snowpack {
			if err := writeDoubles(f, order, row[:]...); err != nil {
				return err
			}
		}
	}
	for _, pair := range sub.RunoffQuality {
		if err := writeDoubles(f, order, pair...); err != nil {
			return err
		}
	}
	for _, lu := range sub.LandUse {
		if err := writeDoubles(f, order, lu.Buildup...); err != nil {
			return err
		}
		if err := writeDoubles(f, order, lu.LastSweep); err != nil {
			return err
		}
	}
	return nil
}

func writeNode(f *os.File, order binary.ByteOrder, n NodeState) error {
	if err := writeDoubles(f, order, n.Depth); err != nil {
		return err
	}
	if err := binary.Write(f, order, n.LatFlow); err != nil {
		return simerr.NewIO("hotstart: node latflow write failed: %v", err)
	}
	if n.IsStorage {
		if err := writeDoubles(f, order, n.HRT); err != nil {
			return err
		}
	}
	return writeDoubles(f, order, n.Quality...)
}

func writeLink(f *os.File, order binary.ByteOrder, l LinkState) error {
	if err := writeDoubles(f, order, l.Flow, l.Depth); err != nil {
		return err
	}
	if err := binary.Write(f, order, l.Setting); err != nil {
		return simerr.NewIO("hotstart: link setting write failed: %v", err)
	}
	return writeDoubles(f, order, l.Quality...)
}

// Shape describes how many optional fields each entity carries, since the
// file itself stores no per-entity flags for groundwater/snowpack/storage --
// the caller's own project topology determines which subcatchments have
// groundwater or snow capability and which nodes are storage nodes, the same
// information it used when writing the file.
type Shape struct {
	NPollut       int
	NLandUses     int
	HasGroundwater []bool // per subcatchment
	HasSnowpack    []bool // per subcatchment
	IsStorage      []bool // per node
}

// Load reads a hot-start file at path, accepting stamp versions 1..4 and
// upgrading older layouts in memory (version < 3 carries no land-use buildup
// block and no storage HRT; version < 4 carries no storage HRT regardless of
// how many land uses are present). Any NaN encountered aborts with a
// read-error (§6, §8 Boundary behaviors).
func Load(path string, shape Shape) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, simerr.NewIO("hotstart: cannot open %q: %v", path, err)
	}
	defer f.Close()

	version, err := readStamp(f)
	if err != nil {
		return nil, err
	}

	order := binary.NativeEndian
	var counts [6]int32
	for i := range counts {
		if err := binary.Read(f, order, &counts[i]); err != nil {
			return nil, simerr.NewIO("hotstart: counts read failed: %v", err)
		}
	}
	s := &State{
		Version: version,
		Counts: Counts{
			NSubcatch: counts[0], NLandUses: counts[1], NNodes: counts[2],
			NLinks: counts[3], NPollut: counts[4], FlowUnits: counts[5],
		},
	}

	for i := 0; i < int(s.Counts.NSubcatch); i++ {
		hasGW := i < len(shape.HasGroundwater) && shape.HasGroundwater[i]
		hasSnow := i < len(shape.HasSnowpack) && shape.HasSnowpack[i]
		sub, err := readSubcatch(f, order, version, shape.NPollut, shape.NLandUses, hasGW, hasSnow)
		if err != nil {
			return nil, err
		}
		s.Subcatch = append(s.Subcatch, sub)
	}
	for i := 0; i < int(s.Counts.NNodes); i++ {
		isStorage := i < len(shape.IsStorage) && shape.IsStorage[i]
		n, err := readNode(f, order, version, shape.NPollut, isStorage)
		if err != nil {
			return nil, err
		}
		s.Node = append(s.Node, n)
	}
	for i := 0; i < int(s.Counts.NLinks); i++ {
		l, err := readLink(f, order, shape.NPollut)
		if err != nil {
			return nil, err
		}
		s.Link = append(s.Link, l)
	}
	return s, nil
}

func readStamp(f *os.File) (int, error) {
	buf := make([]byte, len(stampPrefix)+1)
	if _, err := f.Read(buf); err != nil {
		return 0, simerr.NewIO("hotstart: stamp read failed: %v", err)
	}
	s := string(buf)
	if !strings.HasPrefix(s, stampPrefix) {
		return 0, simerr.NewIO("hotstart: bad stamp %q", s)
	}
	version := int(s[len(stampPrefix)] - '0')
	if version < 1 || version > CurrentVersion {
		return 0, simerr.NewIO("hotstart: unsupported version %d", version)
	}
	return version, nil
}

func readDoubles(f *os.File, order binary.ByteOrder, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		if err := binary.Read(f, order, &out[i]); err != nil {
			return nil, simerr.NewIO("hotstart: read failed: %v", err)
		}
		if math.IsNaN(out[i]) {
			return nil, simerr.NewIO("hotstart: NaN encountered while reading")
		}
	}
	return out, nil
}

func readSubcatch(f *os.File, order binary.ByteOrder, version, nPollut, nLandUses int, hasGW, hasSnow bool) (SubcatchState, error) {
	var sub SubcatchState
	vals, err := readDoubles(f, order, 4)
	if err != nil {
		return sub, err
	}
	sub.PondedDepth = [3]float64{vals[0], vals[1], vals[2]}
	sub.Runoff = vals[3]

	infil, err := readDoubles(f, order, 6)
	if err != nil {
		return sub, err
	}
	copy(sub.Infil[:], infil)

	if hasGW {
		gw, err := readDoubles(f, order, 4)
		if err != nil {
			return sub, err
		}
		sub.HasGroundwater = true
		copy(sub.Groundwater[:], gw)
	}
	if hasSnow {
		for k := 0; k < 3; k++ {
			row, err := readDoubles(f, order, 5)
			if err != nil {
				return sub, err
			}
			copy(sub.Snowpack[k][:], row)
		}
		sub.HasSnowpack = true
	}

	if version >= 3 {
		for p := 0; p < nPollut; p++ {
			pair, err := readDoubles(f, order, 2)
			if err != nil {
				return sub, err
			}
			sub.RunoffQuality = append(sub.RunoffQuality, pair)
		}
		for lu := 0; lu < nLandUses; lu++ {
			buildup, err := readDoubles(f, order, nPollut)
			if err != nil {
				return sub, err
			}
			sweep, err := readDoubles(f, order, 1)
			if err != nil {
				return sub, err
			}
			sub.LandUse = append(sub.LandUse, LandUseState{Buildup: buildup, LastSweep: sweep[0]})
		}
	}
	return sub, nil
}

func readNode(f *os.File, order binary.ByteOrder, version, nPollut int, isStorage bool) (NodeState, error) {
	var n NodeState
	depth, err := readDoubles(f, order, 1)
	if err != nil {
		return n, err
	}
	n.Depth = depth[0]
	if err := binary.Read(f, order, &n.LatFlow); err != nil {
		return n, simerr.NewIO("hotstart: node latflow read failed: %v", err)
	}
	n.IsStorage = isStorage
	if isStorage && version >= 4 {
		hrt, err := readDoubles(f, order, 1)
		if err != nil {
			return n, err
		}
		n.HRT = hrt[0]
	}
	n.Quality, err = readDoubles(f, order, nPollut)
	return n, err
}

func readLink(f *os.File, order binary.ByteOrder, nPollut int) (LinkState, error) {
	var l LinkState
	vals, err := readDoubles(f, order, 2)
	if err != nil {
		return l, err
	}
	l.Flow, l.Depth = vals[0], vals[1]
	if err := binary.Read(f, order, &l.Setting); err != nil {
		return l, simerr.NewIO("hotstart: link setting read failed: %v", err)
	}
	l.Quality, err = readDoubles(f, order, nPollut)
	return l, err
}
