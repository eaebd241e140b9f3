package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	urfave "github.com/urfave/cli/v3"

	"github.com/mind-engage/scorecheck/internal/grading"
	"github.com/mind-engage/scorecheck/internal/scores"
)

const (
	strictFlag  = "strict"
	bonusFlag   = "bonus"
	passingFlag = "passing"
	policyFlag  = "policy"
)

func validateCommand() *urfave.Command {
	return &urfave.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a score and print the result",
		ArgsUsage: "SCORE",
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  strictFlag,
				Usage: "Require a finite integer score",
			},
			&urfave.StringSliceFlag{
				Name:  bonusFlag,
				Usage: "Bonus category, worth 2 points each up to 10 (repeatable)",
			},
			&urfave.FloatFlag{
				Name:  passingFlag,
				Usage: "Passing score (default: 60 or the policy value)",
			},
			&urfave.StringFlag{
				Name:    policyFlag,
				Usage:   "Path to a YAML grading policy file",
				Sources: urfave.EnvVars("GRADING_POLICY_FILE"),
			},
		},
		Action: cmdValidate,
	}
}

func cmdValidate(ctx context.Context, cmd *urfave.Command) error {
	policy, err := grading.LoadPolicy(cmd.String(policyFlag))
	if err != nil {
		return err
	}

	var opts grading.Options
	if cmd.IsSet(strictFlag) {
		b := cmd.Bool(strictFlag)
		opts.StrictMode = &b
	}
	if cats := cmd.StringSlice(bonusFlag); len(cats) > 0 {
		opts.BonusCategories = cats
	}
	if cmd.IsSet(passingFlag) {
		p := cmd.Float(passingFlag)
		opts.PassingScore = &p
	}

	var raw string
	if cmd.Args().Present() {
		raw = cmd.Args().First()
	}
	score := parseScoreArg(raw, cmd.Args().Present())
	slog.Debug("validating", "input", raw, "policy", policy, "options", opts)

	res := grading.NewValidator(policy.Options()...).Validate(score, opts.Apply()...)

	if path := cmd.String(dbFlag); path != "" {
		if err := record(ctx, path, raw, cmd.Args().Present(), opts, res); err != nil {
			return fmt.Errorf("record check: %w", err)
		}
	}

	if err := printOut(cmd, res); err != nil {
		return err
	}
	if !res.Valid {
		return errInvalidScore
	}
	return nil
}

// parseScoreArg maps the CLI argument onto validator input: absent stays
// nil, anything that does not parse as a float is passed on as text.
func parseScoreArg(raw string, present bool) any {
	if !present {
		return nil
	}
	f, ok := grading.ParseNumber(strings.TrimSpace(raw))
	if !ok {
		return raw
	}
	return f
}

func record(ctx context.Context, path, raw string, present bool, opts grading.Options, res grading.Result) error {
	store, closeFn, err := openStore(ctx, path)
	if err != nil {
		return err
	}
	defer closeFn()

	var input json.RawMessage
	if present {
		if b, err := json.Marshal(jsonInput(raw)); err == nil {
			input = b
		}
	}
	c, err := store.Record(ctx, scores.Check{
		Subject: cliSubject(),
		Source:  scores.SourceCLI,
		Input:   input,
		Options: opts,
		Result:  res,
	})
	if err != nil {
		return err
	}
	slog.Debug("recorded check", "id", c.ID, "db", path)
	return nil
}

// jsonInput keeps numbers as JSON numbers; NaN and Inf are not valid JSON
// and are stored as text.
func jsonInput(raw string) any {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return raw
	}
	return f
}
