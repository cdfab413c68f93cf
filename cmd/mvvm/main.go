package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

const (
	configKey     = "config"
	setKey        = "set"
	inputKey      = "input"
	escapeKey     = "escape"
	skipBrokenKey = "skip-broken"
	logLevelKey   = "log-level"
)

func main() {
	cmd := &cli.Command{
		Name:  "mvvm",
		Usage: "Bind templates to reactive data and watch them update",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Bind a document, apply assignments and print the final renders",
				Flags: append(commonFlags(),
					&cli.StringSliceFlag{
						Name:  setKey,
						Usage: "Assign path=value, value parsed as TOML (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  inputKey,
						Usage: "Type binding=value into a model binding (repeatable)",
					},
				),
				Action: run,
			},
			{
				Name:   "inspect",
				Usage:  "Bind a document and print its dependency graph",
				Flags:  commonFlags(),
				Action: inspect,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("mvvm failed")
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     configKey,
			Aliases:  []string{"c"},
			Usage:    "TOML document with data, computed and bind sections",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  escapeKey,
			Usage: "HTML-escape interpolated values",
		},
		&cli.BoolFlag{
			Name:  skipBrokenKey,
			Usage: "Render broken placeholders empty instead of failing",
		},
		&cli.StringFlag{
			Name:  logLevelKey,
			Usage: "Log level (trace, debug, info, warn, error)",
			Value: "info",
		},
	}
}

func setup(cmd *cli.Command) (*app, error) {
	logger, err := initLogger("mvvm", cmd.String(logLevelKey))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	path := cmd.String(configKey)
	doc, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Int("bindings", len(doc.Bind)).Msg("loaded document")

	return newApp(doc, appOptions{
		escape:     cmd.Bool(escapeKey),
		skipBroken: cmd.Bool(skipBrokenKey),
	}, logger)
}

func run(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	for _, assignment := range cmd.StringSlice(setKey) {
		if err := a.set(assignment); err != nil {
			return err
		}
	}
	for _, in := range cmd.StringSlice(inputKey) {
		name, value, ok := strings.Cut(in, "=")
		if !ok {
			return fmt.Errorf("input %q: want binding=value", in)
		}
		if err := a.input(strings.TrimSpace(name), value); err != nil {
			return err
		}
	}

	printViews(os.Stdout, a)
	return nil
}

func inspect(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	printProperties(os.Stdout, a)
	printBindings(os.Stdout, a)
	return nil
}

func printViews(w io.Writer, a *app) {
	for _, v := range a.views {
		fmt.Fprintf(w, "%s: %s\n", v.name, v.text)
	}
}

func printProperties(w io.Writer, a *app) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"property", "value", "subscribers"})
	table.SetAutoWrapText(false)
	for _, row := range a.properties() {
		table.Append([]string{row.path, row.value, humanize.Comma(int64(row.subscribers))})
	}
	for _, key := range a.computedKeys() {
		v, err := a.vm.Get(key)
		value := fmt.Sprint(v)
		if err != nil {
			value = err.Error()
		}
		table.Append([]string{key + " (computed)", value, "-"})
	}
	table.Render()
}

func printBindings(w io.Writer, a *app) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"binding", "kind", "source", "renders", "text"})
	table.SetAutoWrapText(false)
	for _, v := range a.views {
		table.Append([]string{v.name, v.kind, v.source, humanize.Comma(int64(v.renders)), v.text})
	}
	table.Render()
	fmt.Fprintf(w, "%s watchers across %s bindings\n",
		humanize.Comma(int64(a.binder.Watchers())),
		humanize.Comma(int64(a.binder.Bindings())),
	)
}
