// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/gosl/utl"
	"github.com/cpmech/hydrocore/climate"
	"github.com/cpmech/hydrocore/infil"
	"github.com/cpmech/hydrocore/lid"
	"github.com/cpmech/hydrocore/network"
	"github.com/cpmech/hydrocore/outstream"
	"github.com/cpmech/hydrocore/sim"
	"github.com/cpmech/hydrocore/subcatch"
	"github.com/cpmech/hydrocore/xsect"
)

func main() {

	verbose := true

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			if mpi.Rank() == 0 {
				chk.Verbose = true
				for i := 8; i > 3; i-- {
					chk.CallerInfo(i)
				}
				io.PfRed("ERROR: %v\n", err)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	// message
	if mpi.Rank() == 0 {
		io.PfWhite("\nHydroCore -- storm-water flow-routing engine\n\n")
		io.Pf("Copyright 2024 The HydroCore Authors. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n\n")
	}

	// results-stream output path
	flag.Parse()
	var outpath string
	if len(flag.Args()) > 0 {
		outpath = flag.Arg(0)
	} else {
		chk.Panic("Please, provide an output results-stream filename. Ex.: run1.out")
	}
	if io.FnExt(outpath) == "" {
		outpath += ".out"
	}

	// duration, hours (default 2h)
	hours := 2.0
	if len(flag.Args()) > 1 {
		hours = io.Atof(flag.Arg(1))
	}

	// profiling?
	defer utl.DoProf(false)()

	p, err := buildDemoProject(outpath, hours*3600)
	if err != nil {
		chk.Panic("%v", err)
		return
	}
	defer p.Out.Close()

	sum, err := p.Run(context.Background())
	if err != nil {
		chk.Panic("Run failed: %v\n", err)
		return
	}
	if verbose {
		io.Pfyel("non-converging steps: %d\n", sum.NonConvergedSteps)
	}
}

// buildDemoProject assembles the single-subcatchment, two-node network
// shown throughout this repo's tests (one acre, fully impervious, draining
// through a conduit to an outfall) and opens outpath for the routing
// driver's results stream. Reading a real project layout from a text input
// file is out of scope for this engine (see package sim); this stands in
// for inp.ReadSim handing fem.NewFEM a decoded simulation.
func buildDemoProject(outpath string, duration float64) (*sim.Project, error) {
	net := network.NewNetwork(2, 1)
	net.Nodes[0] = network.Node{Kind: network.Junction, ID: "J0", FullDepth: 10}
	net.Nodes[1] = network.Node{Kind: network.Outfall, ID: "OUT1"}
	net.Links[0] = network.Link{
		Kind: network.Conduit, ID: "C1", Node1: 0, Node2: 1, Direction: 1,
		XSect: &xsect.Circular{Diam: 2}, Length: 400, Barrels: 1,
		QFull: 20, AreaFull: (&xsect.Circular{Diam: 2}).AreaFull(), Beta: 20,
	}
	net.BuildAdjacency()
	net.Model = network.Steady

	const acreToFt2 = 43560.0
	area := 1.0 * acreToFt2
	width := math.Sqrt(area)
	sub := &subcatch.Subcatchment{
		ID: "S1", Area: area, Width: width, Slope: 0.01, FracImperv: 1, Gage: 0,
	}
	sub.Subareas[subcatch.Imperv0] = subcatch.Subarea{
		FracArea: 1, N: 0.01, DStore: 0, Target: subcatch.ToOutlet,
		Alpha: subcatch.ComputeAlpha(0.01, width, 0.01, 1, sub.NonLidArea()),
	}

	p := sim.NewProject(net)
	p.Subcatchments = []*subcatch.Subcatchment{sub}
	p.Collab = &subcatch.Collaborators{
		Gage:    demoGage{rate: (1.0 / 12.0) / 3600.0}, // 1 in/hr
		Evap:    &climate.StepEvap{},
		Infil:   infil.NewHorton(0, 0, 1),
		Lid:     lid.NoControls{},
		GW:      lid.NoGroundwater{},
		MassBal: p.MassBal,
		WetStep: 60, DryStep: 600,
	}
	if err := p.ResolveOutlets(); err != nil {
		return nil, err
	}

	p.StartTime = 0
	p.EndTime = duration
	p.ReportPeriod = 300
	p.FixedRoutingStep = 30
	p.NumPolluts = 0

	out, err := outstream.Create(outpath, outstream.Layout{
		NumSubcatch: len(p.Subcatchments),
		NumNodes:    len(net.Nodes),
		NumLinks:    len(net.Links),
		NumPolluts:  p.NumPolluts,
	})
	if err != nil {
		return nil, err
	}
	p.Out = out
	return p, nil
}

// demoGage rains at a fixed rate forever, standing in for a real rain-gage
// time series (§6 Rain gage collaborator).
type demoGage struct{ rate float64 }

func (g demoGage) PrecipAt(gage int, t float64) (rain, snow float64) { return g.rate, 0 }
