// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package outstream

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildPeriod(layout Layout, p int32) Period {
	var out Period
	out.DateTime = float64(p) * 0.25
	out.Subcatch = make([][]float64, layout.NumSubcatch)
	for i := range out.Subcatch {
		row := make([]float64, layout.NSubcatchResults())
		for k := range row {
			row[k] = float64(p*1000 + int32(i*100+k))
		}
		out.Subcatch[i] = row
	}
	out.Node = make([][]float64, layout.NumNodes)
	for i := range out.Node {
		row := make([]float64, layout.NNodeResults())
		for k := range row {
			row[k] = float64(p*2000 + int32(i*100+k))
		}
		out.Node[i] = row
	}
	out.Link = make([][]float64, layout.NumLinks)
	for i := range out.Link {
		row := make([]float64, layout.NLinkResults())
		for k := range row {
			row[k] = float64(p*3000 + int32(i*100+k))
		}
		out.Link[i] = row
	}
	for k := range out.SysResults {
		out.SysResults[k] = float64(p*4000 + int32(k))
	}
	return out
}

// Test_roundtrip_100_periods exercises Testable Scenario 5: write 100
// periods, close, reopen, read period 73, and check the index-back record.
func Test_roundtrip_100_periods(t *testing.T) {
	layout := Layout{NumSubcatch: 2, NumNodes: 3, NumLinks: 2, NumPolluts: 1}
	path := filepath.Join(t.TempDir(), "run.bin")

	w, err := Create(path, layout)
	require.NoError(t, err)
	const n = 100
	for p := int32(1); p <= n; p++ {
		require.NoError(t, w.WritePeriod(buildPeriod(layout, p)))
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, int32(n), r.PeriodCount())
	require.Equal(t, layout, r.Layout())

	got, err := r.ReadPeriod(73)
	require.NoError(t, err)
	want := buildPeriod(layout, 73)

	requireFloatClose(t, want.DateTime, got.DateTime)
	for i := range want.Subcatch {
		for k := range want.Subcatch[i] {
			requireFloatClose(t, want.Subcatch[i][k], got.Subcatch[i][k])
		}
	}
	for i := range want.Node {
		for k := range want.Node[i] {
			requireFloatClose(t, want.Node[i][k], got.Node[i][k])
		}
	}
	for i := range want.Link {
		for k := range want.Link[i] {
			requireFloatClose(t, want.Link[i][k], got.Link[i][k])
		}
	}
	for k := range want.SysResults {
		requireFloatClose(t, want.SysResults[k], got.SysResults[k])
	}
}

func Test_out_of_range_period_rejected(t *testing.T) {
	layout := Layout{NumSubcatch: 1, NumNodes: 1, NumLinks: 1, NumPolluts: 0}
	path := filepath.Join(t.TempDir(), "run.bin")
	w, err := Create(path, layout)
	require.NoError(t, err)
	require.NoError(t, w.WritePeriod(buildPeriod(layout, 1)))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadPeriod(2)
	require.Error(t, err)
}

// requireFloatClose compares values to 4-byte-float precision, since the
// stream stores every result (except the period date/time) as a float32.
func requireFloatClose(t *testing.T, want, got float64) {
	t.Helper()
	if math.Abs(float64(float32(want))-got) > 1e-3 {
		t.Fatalf("got %v, want %v", got, want)
	}
}
