// Package main - dtlsim is a small single-purpose demo driver: it wires
// a DTL instance against the in-memory simtest collaborators and runs
// one publisher/subscriber transaction over a File-engine stream,
// grounded on cmd/xmeta/xmeta.go (a small flag-driven cmd/ binary built
// directly against the package API, no server process).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/simgrid/dtlmod/cmn"
	"github.com/simgrid/dtlmod/cmn/nlog"
	"github.com/simgrid/dtlmod/dtl"
	"github.com/simgrid/dtlmod/engine"
	"github.com/simgrid/dtlmod/simkernel"
	"github.com/simgrid/dtlmod/simtest"
	"github.com/simgrid/dtlmod/stats"
)

const helpMsg = `Build:
	go install dtlsim.go

Examples:
	dtlsim -h                        - show usage
	dtlsim -stream=demo -shape=64,64 - publish and subscribe one transaction of a 64x64 double variable
`

var flags struct {
	stream string
	shape  string
	config string
	help   bool
}

func main() {
	flag.StringVar(&flags.stream, "stream", "demo", "stream name")
	flag.StringVar(&flags.shape, "shape", "64,64", "comma-separated Variable shape")
	flag.StringVar(&flags.config, "config", "", "DTL config file (optional)")
	flag.BoolVar(&flags.help, "h", false, "show usage")
	flag.Parse()

	if flags.help {
		fmt.Print(helpMsg)
		return
	}
	if err := run(); err != nil {
		nlog.Errorln(err)
		os.Exit(1)
	}
}

func run() error {
	shape, err := parseShape(flags.shape)
	if err != nil {
		return err
	}

	kernel := simtest.NewKernel(simkernel.ActorID("publisher"))
	if err := dtl.Create(flags.config, kernel); err != nil {
		return err
	}

	tracker := stats.New()
	fsys := simtest.NewFilesystem()
	ctx := context.Background()

	pubReg, err := dtl.Connect(kernel.Self())
	if err != nil {
		return err
	}
	stream := pubReg.AddStream(flags.stream)
	if err := stream.SetEngineType(cmn.EngineFile); err != nil {
		return err
	}
	if err := stream.SetTransportMethod(cmn.TransportFile); err != nil {
		return err
	}

	start := make([]uint64, len(shape))
	v, err := stream.DefineVariable("T", shape, start, shape, 8)
	if err != nil {
		return err
	}

	uri := "sim-zone:sim-fs:/demo"
	pub, err := engine.OpenFile(ctx, stream, uri, engine.Publish, fsys, 0, pubReg.Kernel(), "host-pub", tracker)
	if err != nil {
		return err
	}
	if err := pub.BeginTransaction(); err != nil {
		return err
	}
	if err := pub.Put(v); err != nil {
		return err
	}
	if err := pub.EndTransaction(ctx); err != nil {
		return err
	}
	if err := pub.Close(ctx); err != nil {
		return err
	}
	if err := dtl.Disconnect(kernel.Self()); err != nil {
		return err
	}

	subActor := simkernel.ActorID("subscriber")
	subReg, err := dtl.Connect(subActor)
	if err != nil {
		return err
	}
	subStream := subReg.StreamByNameOrNull(flags.stream)
	sub, err := engine.OpenFile(ctx, subStream, uri, engine.Subscribe, fsys, 0, subReg.Kernel(), "host-sub", tracker)
	if err != nil {
		return err
	}
	subVar, err := subStream.InquireVariable("T")
	if err != nil {
		return err
	}
	if err := sub.BeginTransaction(); err != nil {
		return err
	}
	if err := sub.Get(subVar); err != nil {
		return err
	}
	if err := sub.EndTransaction(ctx); err != nil {
		return err
	}
	if err := sub.Close(ctx); err != nil {
		return err
	}
	if err := dtl.Disconnect(subActor); err != nil {
		return err
	}

	nlog.Infof("dtlsim: stream %q moved %v shaped variable through transaction %d", flags.stream, shape, pub.CurrentTransactionID())
	return nil
}

func parseShape(raw string) ([]uint64, error) {
	var shape []uint64
	var cur uint64
	var have bool
	for _, r := range raw + "," {
		switch {
		case r >= '0' && r <= '9':
			cur = cur*10 + uint64(r-'0')
			have = true
		case r == ',':
			if !have {
				return nil, fmt.Errorf("dtlsim: malformed shape %q", raw)
			}
			shape = append(shape, cur)
			cur, have = 0, false
		default:
			return nil, fmt.Errorf("dtlsim: malformed shape %q", raw)
		}
	}
	return shape, nil
}
