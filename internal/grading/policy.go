package grading

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the grading defaults of a deployment. Per-call options
// override it.
//
//	passing_score: 65
//	strict_mode: true
type Policy struct {
	PassingScore float64 `yaml:"passing_score"`
	StrictMode   bool    `yaml:"strict_mode"`
}

func DefaultPolicy() Policy {
	return Policy{PassingScore: DefaultPassingScore}
}

// LoadPolicy reads a YAML policy file. An empty path yields DefaultPolicy.
// Keys missing from the file keep their default values.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) Validate() error {
	if math.IsNaN(p.PassingScore) || p.PassingScore < MinScore || p.PassingScore > MaxScore {
		return fmt.Errorf("passing_score %.2f outside [%g,%g]", p.PassingScore, MinScore, MaxScore)
	}
	return nil
}

// Options returns the policy as validator defaults.
func (p Policy) Options() []Option {
	return []Option{WithPassingScore(p.PassingScore), WithStrictMode(p.StrictMode)}
}
