package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/ripple/reactive"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100, 1_000}
)

func newEngine() *reactive.Engine {
	return reactive.New(reactive.WithOnError(func(from any, err error) {
		log.Panic(err)
	}))
}

func propagate(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Uint(itersKey))

	tbl := table.NewWriter()
	tbl.SetTitle("Propagate")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "visited"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			e := newEngine()
			src := reactive.NewField(e, 1)
			for i := 0; i < w; i++ {
				last := reactive.Computed(e, func() int {
					return src.Get() + 1
				})
				for j := 1; j < h; j++ {
					prev := last
					last = reactive.Computed(e, func() int {
						return prev.Value() + 1
					})
				}
				reactive.RunEffect(e, func() error {
					last.Value()
					return nil
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set(src.Peek() + 1)
				e.Flush()
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRow(table.Row{
				fmt.Sprintf("propagate: %d * %d", w, h),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
				e.Stats().Visited / iters,
			})
		}
	}

	tbl.Render()
	return nil
}
