package main

import (
	"cmp"
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/delaneyj/ripple/reactive"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

var viewSizes = []int{100, 1_000, 10_000, 100_000}

func views(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Uint(itersKey))

	tbl := table.NewWriter()
	tbl.SetTitle("Views")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "sorted"})

	for _, n := range viewSizes {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		random := rand.New(rand.NewSource(int64(n)))

		e := newEngine()
		items := make([]int, n)
		for i := range items {
			items[i] = random.Intn(n)
		}
		src := reactive.NewCollection(e, items)
		evens := reactive.FilterView[int](src, func(x int) bool { return x%2 == 0 })
		scaled := reactive.MapView[int, int](evens, func(x int) int { return x * 3 })
		sorted := reactive.SortedView[int](scaled, cmp.Compare[int])
		total := reactive.Computed(e, func() int {
			sum := 0
			for _, x := range sorted.All() {
				sum += x
			}
			return sum
		})
		stop := reactive.RunEffect(e, func() error {
			total.Value()
			return nil
		})

		for i := 0; i < iters; i++ {
			start := time.Now()
			switch i % 3 {
			case 0:
				src.Push(random.Intn(n))
			case 1:
				src.Splice(random.Intn(src.Len()), 1)
			default:
				src.Set(random.Intn(src.Len()), random.Intn(n))
			}
			e.Flush()
			tach.AddTime(time.Since(start))
		}
		stop()

		calc := tach.Calc()
		tbl.AppendRow(table.Row{
			fmt.Sprintf("views: %s items", humanize.Comma(int64(n))),
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
			humanize.Comma(int64(len(sorted.Peek()))),
		})
	}

	tbl.Render()
	return nil
}
