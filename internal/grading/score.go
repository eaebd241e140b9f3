package grading

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// Validation messages, in the order the checks run.
const (
	MsgRequired   = "Score ist erforderlich"
	MsgNotNumber  = "Score muss eine Zahl sein"
	MsgNotFinite  = "Score muss eine gültige Zahl sein"
	MsgNotInteger = "Score muss eine ganze Zahl sein"
	MsgOutOfRange = "Score muss zwischen 0 und 100 liegen"
)

const (
	MinScore            = 0.0
	MaxScore            = 100.0
	DefaultPassingScore = 60.0

	BonusPerCategory = 2.0
	MaxBonus         = 10.0
)

// Result is the outcome of validating a single score. Passed reports
// Score >= passing score and is always false when Valid is false.
type Result struct {
	Valid  bool     `json:"valid" yaml:"valid"`
	Score  float64  `json:"score" yaml:"score"` // final score, always within [0,100]
	Errors []string `json:"errors" yaml:"errors"`
	Passed bool     `json:"passed" yaml:"passed"`
	Grade  Grade    `json:"grade" yaml:"grade"`
}

// Validator options

type Option func(*config)

type config struct {
	StrictMode      bool
	BonusCategories []string
	PassingScore    float64
}

func WithStrictMode(b bool) Option { return func(c *config) { c.StrictMode = b } }
func WithPassingScore(p float64) Option { return func(c *config) { c.PassingScore = p } }

// WithBonusCategories replaces the bonus categories; later options win.
func WithBonusCategories(cats ...string) Option {
	return func(c *config) { c.BonusCategories = append([]string(nil), cats...) }
}

// Options is the wire form of the validator options.
type Options struct {
	StrictMode      *bool    `json:"strict_mode,omitempty" yaml:"strict_mode,omitempty"`
	BonusCategories []string `json:"bonus_categories,omitempty" yaml:"bonus_categories,omitempty" validate:"max=50,dive,max=64"`
	PassingScore    *float64 `json:"passing_score,omitempty" yaml:"passing_score,omitempty" validate:"omitempty,min=0,max=100"`
}

// Apply converts o into options. Unset fields produce no option so that
// defaults bound on a Validator stay in effect.
func (o Options) Apply() []Option {
	var out []Option
	if o.StrictMode != nil {
		out = append(out, WithStrictMode(*o.StrictMode))
	}
	if len(o.BonusCategories) > 0 {
		out = append(out, WithBonusCategories(o.BonusCategories...))
	}
	if o.PassingScore != nil {
		out = append(out, WithPassingScore(*o.PassingScore))
	}
	return out
}

// Validator validates scores against a fixed set of default options.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	defaults []Option
}

func NewValidator(opts ...Option) *Validator {
	return &Validator{defaults: append([]Option(nil), opts...)}
}

// Validate runs the checks with the validator's defaults followed by opts.
func (v *Validator) Validate(score any, opts ...Option) Result {
	cfg := &config{PassingScore: DefaultPassingScore}
	for _, o := range v.defaults {
		o(cfg)
	}
	for _, o := range opts {
		o(cfg)
	}
	return validate(score, cfg)
}

// ValidateScore validates score with the package defaults
// (lenient mode, no bonus, passing score 60).
func ValidateScore(score any, opts ...Option) Result {
	return NewValidator().Validate(score, opts...)
}

func validate(score any, cfg *config) Result {
	res := Result{Errors: []string{}}

	value, numeric := toFloat(score)
	switch {
	case score == nil:
		res.Errors = append(res.Errors, MsgRequired)
	case !numeric:
		res.Errors = append(res.Errors, MsgNotNumber)
	case cfg.StrictMode && !isFinite(value):
		res.Errors = append(res.Errors, MsgNotFinite)
	default:
		if cfg.StrictMode && math.Trunc(value) != value {
			res.Errors = append(res.Errors, MsgNotInteger)
		}
		if !isFinite(value) || value < MinScore || value > MaxScore {
			res.Errors = append(res.Errors, MsgOutOfRange)
		}
	}

	res.Valid = len(res.Errors) == 0
	switch {
	case res.Valid:
		res.Score = math.Min(MaxScore, value+Bonus(len(cfg.BonusCategories)))
	case numeric && isFinite(value):
		res.Score = clamp(value)
	}
	res.Passed = res.Valid && res.Score >= cfg.PassingScore
	res.Grade = GradeFor(res.Score)
	return res
}

// Bonus returns the bonus points for n categories.
func Bonus(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(MaxBonus, BonusPerCategory*float64(n))
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		return ParseNumber(string(t))
	default:
		return 0, false
	}
}

// ParseNumber parses a numeric literal the way Validate reads json.Number.
// Literals beyond float64 range are still numbers: they come back as
// +/-Inf (or 0 on underflow).
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func clamp(f float64) float64 { return math.Max(MinScore, math.Min(MaxScore, f)) }
