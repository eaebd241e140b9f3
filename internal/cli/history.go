package cli

import (
	"context"
	"errors"
	"os"
	"os/user"
	"strings"

	urfave "github.com/urfave/cli/v3"

	"github.com/mind-engage/scorecheck/internal/db"
	"github.com/mind-engage/scorecheck/internal/grading"
	"github.com/mind-engage/scorecheck/internal/scores"
)

const (
	limitFlag = "limit"
	gradeFlag = "grade"
)

func historyCommand() *urfave.Command {
	return &urfave.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "List checks recorded with --db",
		Commands: []*urfave.Command{
			{
				Name:  "list",
				Usage: "List recorded checks, newest first",
				Flags: []urfave.Flag{
					&urfave.IntFlag{
						Name:  limitFlag,
						Usage: "Maximum number of checks to list",
						Value: scores.DefaultListLimit,
					},
					&urfave.StringFlag{
						Name:  gradeFlag,
						Usage: "Only list checks with this grade [A-F]",
					},
				},
				Action: cmdHistoryList,
			},
			{
				Name:   "stats",
				Usage:  "Summarize recorded checks",
				Action: cmdHistoryStats,
			},
		},
	}
}

func cmdHistoryList(ctx context.Context, cmd *urfave.Command) error {
	opts := scores.ListOpts{Limit: int(cmd.Int(limitFlag))}
	if g := strings.TrimSpace(cmd.String(gradeFlag)); g != "" {
		grade, ok := grading.ParseGrade(strings.ToUpper(g))
		if !ok {
			return errors.New("grade must be one of A,B,C,D,F")
		}
		opts.Grade = grade
	}

	store, closeFn, err := openStore(ctx, cmd.String(dbFlag))
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := store.List(ctx, opts)
	if err != nil {
		return err
	}
	return printOut(cmd, list)
}

func cmdHistoryStats(ctx context.Context, cmd *urfave.Command) error {
	store, closeFn, err := openStore(ctx, cmd.String(dbFlag))
	if err != nil {
		return err
	}
	defer closeFn()

	st, err := store.Stats(ctx, "")
	if err != nil {
		return err
	}
	return printOut(cmd, st)
}

func openStore(ctx context.Context, path string) (scores.Store, func(), error) {
	if path == "" {
		return nil, nil, errors.New("--db is required")
	}
	dsn := "file:" + path + "?mode=rwc&_pragma=busy_timeout(5000)"
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		return nil, nil, err
	}
	return scores.NewSQLStore(dbh, string(db.DriverSQLite)), func() { dbh.Close() }, nil
}

func cliSubject() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "cli"
}
