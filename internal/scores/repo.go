package scores

import (
	"context"
	"errors"

	"github.com/mind-engage/scorecheck/internal/grading"
)

var ErrNotFound = errors.New("check not found")

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type ListOpts struct {
	Subject string        // empty: all subjects
	Grade   grading.Grade // empty: any grade
	Valid   *bool
	Limit   int
	Offset  int
}

func (o ListOpts) limit() int {
	switch {
	case o.Limit <= 0:
		return DefaultListLimit
	case o.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return o.Limit
	}
}

type Store interface {
	// Record assigns ID and CreatedAt when empty and persists the check.
	Record(ctx context.Context, c Check) (Check, error)
	Get(ctx context.Context, id string) (Check, error)
	// List returns checks newest first.
	List(ctx context.Context, opts ListOpts) ([]Check, error)
	Stats(ctx context.Context, subject string) (Stats, error)
}
