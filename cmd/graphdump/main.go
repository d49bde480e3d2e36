package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/delaneyj/ripple/graph"
	"github.com/delaneyj/ripple/scenario"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	scenarioKey = "scenario"
	dotKey      = "dot"
	processKey  = "process"
	stopKey     = "stop"
)

func main() {
	cmd := &cli.Command{
		Name:  "graphdump",
		Usage: "Replay a graph scenario and print its order, cycles and DOT rendering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     scenarioKey,
				Usage:    "YAML scenario to replay",
				Required: true,
			},
			&cli.StringFlag{
				Name:  dotKey,
				Usage: "Write the DOT rendering to this file, - for stdout",
			},
			&cli.BoolFlag{
				Name:  processKey,
				Usage: "Run one process pass and print the visited vertices",
			},
			&cli.StringSliceFlag{
				Name:  stopKey,
				Usage: "Vertices that do not propagate during --process",
			},
		},
		Action: dump,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func dump(ctx context.Context, cmd *cli.Command) error {
	s, err := scenario.Load(cmd.String(scenarioKey))
	if err != nil {
		return err
	}
	r, err := s.Replay()
	if err != nil {
		return err
	}

	if cmd.Bool(processKey) {
		steps := r.Process(cmd.StringSlice(stopKey)...)
		log.Printf("process visited %s vertices", humanize.Comma(int64(len(steps))))
		for i, step := range steps {
			fmt.Printf("%4d  %s\n", i+1, step)
		}
	}

	snap := r.Graph.DebugGetGraph()
	writeTable(os.Stdout, snap)
	log.Printf("%s vertices, %s edges, %s cycles, %s dirty",
		humanize.Comma(int64(len(snap.Vertices))),
		humanize.Comma(int64(len(snap.Edges))),
		humanize.Comma(int64(len(snap.Cycles))),
		humanize.Comma(int64(r.Graph.DirtyCount())),
	)

	switch path := cmd.String(dotKey); path {
	case "":
	case "-":
		fmt.Print(graph.Dot(snap))
	default:
		if err := os.WriteFile(path, []byte(graph.Dot(snap)), 0644); err != nil {
			return err
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

func writeTable(w io.Writer, snap *graph.Snapshot) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"slot", "id", "name", "kind", "dirty", "cycle", "dependents"})

	dependents := map[graph.Vertex][]string{}
	names := map[graph.Vertex]string{}
	for _, v := range snap.Vertices {
		names[v.ID] = v.Label
	}
	for _, e := range snap.Edges {
		dependents[e.From] = append(dependents[e.From], names[e.To])
	}

	for _, v := range snap.Vertices {
		cycle := ""
		if v.Cycle >= 0 {
			cycle = fmt.Sprint(v.Cycle)
		}
		dirty := ""
		if v.Dirty {
			dirty = "*"
		}
		table.Append([]string{
			fmt.Sprint(v.Index),
			fmt.Sprint(v.ID),
			v.Label,
			v.Kind.String(),
			dirty,
			cycle,
			strings.Join(dependents[v.ID], " "),
		})
	}
	table.Render()
}
