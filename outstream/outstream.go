// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package outstream implements the fixed-layout binary results stream
// (§4.9): a header written at open, one fixed-size record appended per
// reporting period, and an index-back record written at close so a reader
// can seek directly to any period without scanning the whole file. The
// layout is intentionally not portable across endianness -- it is pinned to
// the host's native byte order at open, the same compatibility tradeoff the
// format this package imitates has always made, and callers that need a
// portable artifact should not reach for this package.
package outstream

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/hydrocore/simerr"
)

// Magic is the index-back record's sentinel, written as the last 4 bytes of
// the file so a reader can confirm the stream closed cleanly before trusting
// the period count that precedes it.
const Magic int32 = 516114522

// Layout describes the shape of every period record: how many of each
// reported entity kind there are and how many pollutants each carries, per
// §4.9's NsubcatchResults/NnodeResults/NlinkResults formulas.
type Layout struct {
	NumSubcatch int
	NumNodes    int
	NumLinks    int
	NumPolluts  int
}

// NSubcatchResults is 8 fixed quantities (rainfall, snow depth, evap, infil,
// runoff, gw-flow, gw-elev, soil-moist) plus one washoff value per pollutant.
func (l Layout) NSubcatchResults() int { return 8 + l.NumPolluts }

// NNodeResults is 6 fixed quantities plus one concentration per pollutant.
func (l Layout) NNodeResults() int { return 6 + l.NumPolluts }

// NLinkResults is 5 fixed quantities plus one concentration per pollutant.
func (l Layout) NLinkResults() int { return 5 + l.NumPolluts }

// MaxSysResults is the fixed count of system-wide summary values appended
// after every object kind in a period record.
const MaxSysResults = 15

// BytesPerPeriod is the total size of one period record: the 8-byte
// date/time stamp, then every reported subcatchment/node/link block, then
// the system summary block, all as 4-byte floats.
func (l Layout) BytesPerPeriod() int64 {
	n := l.NumSubcatch*l.NSubcatchResults() + l.NumNodes*l.NNodeResults() + l.NumLinks*l.NLinkResults() + MaxSysResults
	return 8 + int64(n)*4
}

// Period is one decoded reporting-period record.
type Period struct {
	DateTime   float64 // days since epoch, IEEE-754 double
	Subcatch   [][]float64
	Node       [][]float64
	Link       [][]float64
	SysResults [MaxSysResults]float64
}

// Writer appends period records to a binary results stream. It is
// single-writer (§5 Shared Resources) and not safe for concurrent use.
type Writer struct {
	f           *os.File
	layout      Layout
	order       binary.ByteOrder
	startPos    int64 // offset of the first period record, after the header
	periodCount int32
}

// Create opens path for writing, truncating any existing file, and writes
// the fixed header. The byte order is pinned to the host's native order at
// this call (binary.NativeEndian), matching the format's documented
// non-portability (§4.9).
func Create(path string, layout Layout) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, simerr.NewIO("outstream: cannot create %q: %v", path, err)
	}
	w := &Writer{f: f, layout: layout, order: binary.NativeEndian}
	if err := w.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	fields := []int32{
		int32(w.layout.NumSubcatch),
		int32(w.layout.NumNodes),
		int32(w.layout.NumLinks),
		int32(w.layout.NumPolluts),
		0, // reserved
	}
	for _, v := range fields {
		if err := binary.Write(w.f, w.order, v); err != nil {
			return simerr.NewIO("outstream: header write failed: %v", err)
		}
	}
	pos, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return simerr.NewIO("outstream: header seek failed: %v", err)
	}
	w.startPos = pos
	return nil
}

// WritePeriod appends one reporting-period record (§4.9's fixed layout).
// Subcatch/Node/Link must match the Layout's counts and per-entity result
// widths exactly; a length mismatch is a programmer error (chk.Panic), not a
// recoverable I/O condition, since it can only come from miswired caller
// code, not from anything the stream itself observed going wrong.
func (w *Writer) WritePeriod(p Period) error {
	if len(p.Subcatch) != w.layout.NumSubcatch || len(p.Node) != w.layout.NumNodes || len(p.Link) != w.layout.NumLinks {
		chk.Panic("outstream: WritePeriod entity-count mismatch with layout")
	}
	if err := binary.Write(w.f, w.order, p.DateTime); err != nil {
		return simerr.NewIO("outstream: period date/time write failed: %v", err)
	}
	if err := w.writeBlock(p.Subcatch, w.layout.NSubcatchResults()); err != nil {
		return err
	}
	if err := w.writeBlock(p.Node, w.layout.NNodeResults()); err != nil {
		return err
	}
	if err := w.writeBlock(p.Link, w.layout.NLinkResults()); err != nil {
		return err
	}
	for _, v := range p.SysResults {
		if err := binary.Write(w.f, w.order, float32(v)); err != nil {
			return simerr.NewIO("outstream: system-results write failed: %v", err)
		}
	}
	w.periodCount++
	return nil
}

func (w *Writer) writeBlock(rows [][]float64, width int) error {
	for _, row := range rows {
		if len(row) != width {
			chk.Panic("outstream: result row width %d does not match layout width %d", len(row), width)
		}
		for _, v := range row {
			if err := binary.Write(w.f, w.order, float32(v)); err != nil {
				return simerr.NewIO("outstream: result write failed: %v", err)
			}
		}
	}
	return nil
}

// Close writes the index-back record (period count then Magic) and closes
// the underlying file. Every exit path -- including an earlier I/O error --
// must still reach Close via defer, per §5's scoped-acquisition discipline.
func (w *Writer) Close() error {
	if err := binary.Write(w.f, w.order, w.periodCount); err != nil {
		w.f.Close()
		return simerr.NewIO("outstream: index-back period-count write failed: %v", err)
	}
	if err := binary.Write(w.f, w.order, Magic); err != nil {
		w.f.Close()
		return simerr.NewIO("outstream: index-back magic write failed: %v", err)
	}
	if err := w.f.Close(); err != nil {
		return simerr.NewIO("outstream: close failed: %v", err)
	}
	return nil
}

// PeriodCount returns the number of periods written so far.
func (w *Writer) PeriodCount() int32 { return w.periodCount }

// Reader provides seek-indexed random access to a stream written by Writer.
// It is single-reader per §5.
type Reader struct {
	f           *os.File
	layout      Layout
	order       binary.ByteOrder
	startPos    int64
	periodCount int32
}

// Open opens path for reading, validates the index-back record, and derives
// Layout from the header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, simerr.NewIO("outstream: cannot open %q: %v", path, err)
	}
	r := &Reader{f: f, order: binary.NativeEndian}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	if err := r.readIndexBack(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	var nSub, nNode, nLink, nPoll, reserved int32
	for _, v := range []*int32{&nSub, &nNode, &nLink, &nPoll, &reserved} {
		if err := binary.Read(r.f, r.order, v); err != nil {
			return simerr.NewIO("outstream: header read failed: %v", err)
		}
	}
	r.layout = Layout{NumSubcatch: int(nSub), NumNodes: int(nNode), NumLinks: int(nLink), NumPolluts: int(nPoll)}
	pos, err := r.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return simerr.NewIO("outstream: header seek failed: %v", err)
	}
	r.startPos = pos
	return nil
}

func (r *Reader) readIndexBack() error {
	var magic int32
	if _, err := r.f.Seek(-8, io.SeekEnd); err != nil {
		return simerr.NewIO("outstream: cannot seek to index-back record: %v", err)
	}
	if err := binary.Read(r.f, r.order, &r.periodCount); err != nil {
		return simerr.NewIO("outstream: index-back period-count read failed: %v", err)
	}
	if err := binary.Read(r.f, r.order, &magic); err != nil {
		return simerr.NewIO("outstream: index-back magic read failed: %v", err)
	}
	if magic != Magic {
		return simerr.NewIO("outstream: index-back magic mismatch: stream was not closed cleanly")
	}
	return nil
}

// Layout returns the stream's object-count/pollutant layout, as read from
// the header.
func (r *Reader) Layout() Layout { return r.layout }

// PeriodCount returns the number of periods recorded in the stream.
func (r *Reader) PeriodCount() int32 { return r.periodCount }

// ReadPeriod seeks to and decodes period p (1-based), per §4.9's reader
// offset formula bytePos = OutputStartPos + (p-1)*BytesPerPeriod + ...,
// computed here by walking the same field layout WritePeriod wrote rather
// than re-deriving the offset arithmetic by hand.
func (r *Reader) ReadPeriod(p int32) (Period, error) {
	if p < 1 || p > r.periodCount {
		return Period{}, simerr.NewIO("outstream: period %d out of range [1,%d]", p, r.periodCount)
	}
	pos := r.startPos + int64(p-1)*r.layout.BytesPerPeriod()
	if _, err := r.f.Seek(pos, io.SeekStart); err != nil {
		return Period{}, simerr.NewIO("outstream: seek to period %d failed: %v", p, err)
	}
	var out Period
	if err := binary.Read(r.f, r.order, &out.DateTime); err != nil {
		return out, simerr.NewIO("outstream: period %d date/time read failed: %v", p, err)
	}
	var err error
	if out.Subcatch, err = r.readBlock(r.layout.NumSubcatch, r.layout.NSubcatchResults()); err != nil {
		return out, err
	}
	if out.Node, err = r.readBlock(r.layout.NumNodes, r.layout.NNodeResults()); err != nil {
		return out, err
	}
	if out.Link, err = r.readBlock(r.layout.NumLinks, r.layout.NLinkResults()); err != nil {
		return out, err
	}
	for i := range out.SysResults {
		var v float32
		if err := binary.Read(r.f, r.order, &v); err != nil {
			return out, simerr.NewIO("outstream: period %d system-results read failed: %v", p, err)
		}
		out.SysResults[i] = float64(v)
	}
	return out, nil
}

func (r *Reader) readBlock(nEntities, width int) ([][]float64, error) {
	rows := make([][]float64, nEntities)
	for i := range rows {
		row := make([]float64, width)
		for k := range row {
			var v float32
			if err := binary.Read(r.f, r.order, &v); err != nil {
				return nil, simerr.NewIO("outstream: block read failed: %v", err)
			}
			row[k] = float64(v)
		}
		rows[i] = row
	}
	return rows, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if err := r.f.Close(); err != nil {
		return simerr.NewIO("outstream: close failed: %v", err)
	}
	return nil
}

// ObjectOffset returns the byte offset, within period p's record, at which
// object index k of the given reported-entity width begins -- the
// "prior-object-kinds-sizes" term of §4.9's reader offset formula, exposed
// for callers that want to patch a single value in place rather than decode
// a whole period.
func ObjectOffset(priorKindsBytes int64, k, width int) int64 {
	return 8 + priorKindsBytes + int64(k)*int64(width)*4
}
