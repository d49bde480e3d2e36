package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/ripple/reactive"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

type layersConfig struct {
	name           string
	width          int
	totalLayers    int
	staticFraction float64 // fraction of calculations that always read every source
	nSources       int     // sources per calculation
	readFraction   float64 // fraction of the last layer read after each write
	iterations     int
}

var layersConfigs = []layersConfig{
	{name: "simple component", width: 10, totalLayers: 5, staticFraction: 1, nSources: 2, readFraction: 0.2, iterations: 600000},
	{name: "dynamic component", width: 10, totalLayers: 10, staticFraction: 0.75, nSources: 6, readFraction: 0.2, iterations: 15000},
	{name: "large web app", width: 1000, totalLayers: 12, staticFraction: 0.95, nSources: 4, readFraction: 1, iterations: 7000},
	{name: "wide dense", width: 1000, totalLayers: 5, staticFraction: 1, nSources: 25, readFraction: 1, iterations: 3000},
	{name: "deep", width: 5, totalLayers: 500, staticFraction: 1, nSources: 3, readFraction: 1, iterations: 500},
	{name: "very dynamic", width: 100, totalLayers: 15, staticFraction: 0.5, nSources: 6, readFraction: 1, iterations: 2000},
}

func (cfg layersConfig) title() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
	if cfg.staticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.readFraction < 1 {
		sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
	}
	return sb.String()
}

type layeredGraph struct {
	e       *reactive.Engine
	sources []*reactive.Field[int]
	layers  [][]*reactive.Calc[int]
}

func layers(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting layers benchmark, please wait...")
	defer log.Print("Finished layers benchmark")

	repeats := int(cmd.Uint(repeatsKey))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"size", "nSources", "read%", "static%", "nTimes", "test",
		"time", "visited", "updateRate", "sum", "title",
	})

	for _, cfg := range layersConfigs {
		log.Printf("Running '%s' config", cfg.name)
		counter := new(int64)
		g := makeLayeredGraph(cfg, counter)

		// warm up
		runLayeredGraph(g, cfg)

		var (
			best    = time.Hour
			sum     int
			count   int64
			visited int
		)
		for i := 0; i < repeats; i++ {
			*counter = 0
			before := g.e.Stats().Visited
			start := time.Now()
			s := runLayeredGraph(g, cfg)
			d := time.Since(start)
			if d < best {
				best, sum, count = d, s, *counter
				visited = g.e.Stats().Visited - before
			}
		}

		updateRate := float64(count) / (float64(best) / float64(time.Millisecond))
		table.Append([]string{
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(int64(cfg.iterations)),
			cfg.name,
			fmt.Sprint(best),
			humanize.Comma(int64(visited)),
			humanize.Comma(int64(updateRate)),
			fmt.Sprint(sum),
			cfg.title(),
		})
	}
	table.Render()
	return nil
}

func makeLayeredGraph(cfg layersConfig, counter *int64) *layeredGraph {
	e := newEngine()
	g := &layeredGraph{e: e, sources: make([]*reactive.Field[int], cfg.width)}
	prev := make([]func() int, cfg.width)
	for i := range g.sources {
		src := reactive.NewField(e, i)
		g.sources[i] = src
		prev[i] = src.Get
	}

	random := rand.New(rand.NewSource(0))
	for l := 0; l < cfg.totalLayers-1; l++ {
		row := make([]*reactive.Calc[int], len(prev))
		next := make([]func() int, len(prev))
		for myDex := range prev {
			mySources := make([]func() int, 0, cfg.nSources)
			for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
				mySources = append(mySources, prev[(myDex+sourceDex)%len(prev)])
			}

			if random.Float64() < cfg.staticFraction {
				row[myDex] = reactive.Computed(e, func() int {
					*counter++
					sum := 0
					for _, read := range mySources {
						sum += read()
					}
					return sum
				})
			} else {
				first, tail := mySources[0], mySources[1:]
				row[myDex] = reactive.Computed(e, func() int {
					*counter++
					sum := first()
					shouldDrop := sum&0x1 > 0
					dropDex := sum % len(tail)
					for i, read := range tail {
						if shouldDrop && i == dropDex {
							continue
						}
						sum += read()
					}
					return sum
				})
			}
			next[myDex] = row[myDex].Value
		}
		g.layers = append(g.layers, row)
		prev = next
	}
	return g
}

// runLayeredGraph writes one source per iteration and reads some or all of the
// leaves. It returns the sum of the leaves read.
func runLayeredGraph(g *layeredGraph, cfg layersConfig) int {
	random := rand.New(rand.NewSource(0))
	leaves := g.layers[len(g.layers)-1]
	skipCount := int(math.Round(float64(len(leaves)) * (1 - cfg.readFraction)))
	readLeaves := removeElems(leaves, skipCount, random)

	for i := 0; i < cfg.iterations; i++ {
		g.e.Batch(func() {
			sourceDex := i % len(g.sources)
			g.sources[sourceDex].Set(i + sourceDex)
		})
		for _, leaf := range readLeaves {
			leaf.Value()
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		sum += leaf.Value()
	}
	return sum
}

func removeElems[T any](src []T, rmCount int, rand *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for i := 0; i < rmCount; i++ {
		rmDex := rand.Intn(len(out))
		out[rmDex] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
