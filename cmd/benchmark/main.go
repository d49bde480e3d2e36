package main

import (
	"context"
	"log"
	"os"
	"runtime/pprof"

	"github.com/urfave/cli/v3"
)

const (
	cpuProfileKey = "cpuprofile"
	itersKey      = "iters"
	repeatsKey    = "repeats"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure propagation through the reactive engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Before: startProfile,
		After:  stopProfile,
		Commands: []*cli.Command{
			{
				Name:  "propagate",
				Usage: "Chains of calculations fed by one field, one effect per chain",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  itersKey,
						Usage: "Writes per graph shape",
						Value: 100,
					},
				},
				Action: propagate,
			},
			{
				Name:  "layers",
				Usage: "Layered graphs with static and dynamic dependencies",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  repeatsKey,
						Usage: "Runs per configuration, the fastest is reported",
						Value: 5,
					},
				},
				Action: layers,
			},
			{
				Name:  "views",
				Usage: "Collection edits through filter, map and sorted views",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  itersKey,
						Usage: "Edits per collection size",
						Value: 1000,
					},
				},
				Action: views,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var profile *os.File

func startProfile(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String(cpuProfileKey)
	if path == "" {
		return ctx, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return ctx, err
	}
	profile = f
	return ctx, pprof.StartCPUProfile(f)
}

func stopProfile(ctx context.Context, cmd *cli.Command) error {
	if profile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	return profile.Close()
}
