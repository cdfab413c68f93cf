package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/delaneyj/mvvm/reactive"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

const (
	itersKey   = "iters"
	widthsKey  = "widths"
	depthsKey  = "depths"
	profileKey = "cpuprofile"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("app", "benchmark").Logger()

	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure write propagation through watched dot paths",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Writes per configuration",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  widthsKey,
				Usage: "Comma separated watcher counts per path",
				Value: "1,10,100,1000",
			},
			&cli.StringFlag{
				Name:  depthsKey,
				Usage: "Comma separated path depths",
				Value: "1,4,16",
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Action: benchmark,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("benchmark failed")
	}
}

func benchmark(ctx context.Context, cmd *cli.Command) error {
	widths, err := parseInts(cmd.String(widthsKey))
	if err != nil {
		return fmt.Errorf("%s: %w", widthsKey, err)
	}
	depths, err := parseInts(cmd.String(depthsKey))
	if err != nil {
		return fmt.Errorf("%s: %w", depthsKey, err)
	}
	iters := int(cmd.Uint(itersKey))
	if iters < 1 {
		return fmt.Errorf("%s must be at least 1", itersKey)
	}

	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	log.Info().Ints("widths", widths).Ints("depths", depths).Int("iters", iters).Msg("warming up")
	if _, err := runLeafWrites(1, 1, iters); err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("Reactive path propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "effects"})

	for _, w := range widths {
		for _, h := range depths {
			res, err := runLeafWrites(w, h, iters)
			if err != nil {
				return err
			}
			tbl.AppendRow(res.row(fmt.Sprintf("leaf write: %d * %d", w, h)))

			res, err = runRootSwaps(w, h, iters)
			if err != nil {
				return err
			}
			tbl.AppendRow(res.row(fmt.Sprintf("root swap: %d * %d", w, h)))
		}
	}

	tbl.Render()
	return nil
}

type result struct {
	calc    *tachymeter.Metrics
	effects int64
}

func (r result) row(name string) table.Row {
	return table.Row{
		name,
		r.calc.Time.Avg,
		r.calc.Time.Min,
		r.calc.Time.P75,
		r.calc.Time.P99,
		r.calc.Time.Max,
		humanize.Comma(r.effects),
	}
}

// nested builds {k0: {k1: {... {v: 0}}}} with depth levels of nesting and
// returns it with the dot path to the leaf.
func nested(depth int) (map[string]any, string) {
	leaf := map[string]any{"v": 0}
	keys := []string{"v"}
	for i := depth - 1; i > 0; i-- {
		leaf = map[string]any{"k" + strconv.Itoa(i): leaf}
		keys = append([]string{"k" + strconv.Itoa(i)}, keys...)
	}
	return leaf, strings.Join(keys, ".")
}

func setup(width, depth int) (*reactive.Object, string, *int64, error) {
	rs := reactive.NewSystem()
	data, expr := nested(depth)
	root := rs.NewObject(data)

	effects := new(int64)
	for i := 0; i < width; i++ {
		if _, err := root.Watch(expr, func(any) { *effects++ }); err != nil {
			return nil, "", nil, err
		}
	}
	return root, expr, effects, nil
}

func runLeafWrites(width, depth, iters int) (result, error) {
	root, expr, effects, err := setup(width, depth)
	if err != nil {
		return result{}, err
	}

	segments := strings.Split(expr, ".")
	parent := root
	for _, seg := range segments[:len(segments)-1] {
		parent = parent.Get(seg).(*reactive.Object)
	}

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 1; i <= iters; i++ {
		start := time.Now()
		if err := parent.Set("v", i); err != nil {
			return result{}, err
		}
		tach.AddTime(time.Since(start))
	}
	return result{calc: tach.Calc(), effects: *effects}, nil
}

func runRootSwaps(width, depth, iters int) (result, error) {
	root, _, effects, err := setup(width, depth)
	if err != nil {
		return result{}, err
	}
	key := root.Keys()[0]

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 0; i < iters; i++ {
		fresh, _ := nested(depth)
		next := fresh[key]
		if depth == 1 {
			next = i + 1
		}
		start := time.Now()
		if err := root.Set(key, next); err != nil {
			return result{}, err
		}
		tach.AddTime(time.Since(start))
	}
	return result{calc: tach.Calc(), effects: *effects}, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("%d must be at least 1", n)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values in %q", s)
	}
	return out, nil
}
