package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"

	debugFlag  = "debug"
	formatFlag = "format"
	dbFlag     = "db"
)

var (
	version = "v0.0.1-default"
	commit  = ""

	// errInvalidScore makes the process exit non-zero without an error log.
	errInvalidScore = errors.New("invalid score")
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(os.Stderr, false)

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalidScore) {
			slog.Error("fatal error", "error", err)
		}
		os.Exit(1)
	}
}

// newApp builds a fresh command tree; flags hold parse state, so every
// run gets its own.
func newApp(w io.Writer) *urfave.Command {
	return &urfave.Command{
		Name:                  "scorecheck",
		Version:               fmt.Sprintf("%s (%s)", version, commit),
		Usage:                 "Validate scores, apply bonus points and assign letter grades",
		Writer:                w,
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlag,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  formatFlag,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
				Validator: func(s string) error {
					if s != formatJSON && s != formatYAML {
						return fmt.Errorf("unsupported format %q", s)
					}
					return nil
				},
			},
			&urfave.StringFlag{
				Name:  dbFlag,
				Usage: "Path to a Sqlite database file to record checks in (optional)",
			},
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			if cmd.Bool(debugFlag) {
				initLogging(os.Stderr, true)
			}
			return ctx, nil
		},
		Commands: []*urfave.Command{
			validateCommand(),
			historyCommand(),
		},
	}
}

func initLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

func printOut(cmd *urfave.Command, v any) error {
	w := cmd.Root().Writer
	switch cmd.String(formatFlag) {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
