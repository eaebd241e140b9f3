package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/scorecheck/internal/grading"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `validate:"oneof=offline online"`
	HTTPAddr string `validate:"required"`

	DBDriver string `validate:"oneof=sqlite postgres memory"`
	DBDSN    string

	AuthSecret      string `validate:"required,min=8"`
	EnableLocalAuth bool

	AdminUser     string `validate:"required"`
	AdminPassHash string `validate:"required"` // bcrypt

	CORSOriginsOnline  []string `validate:"dive,url"`
	CORSOriginsOffline []string `validate:"dive,url"`

	// Grading policy. Env values override the policy file.
	PolicyFile   string
	PassingScore *float64 `validate:"omitempty,min=0,max=100"`
	StrictMode   *bool

	LogLevel      string `validate:"oneof=debug info warn error"`
	EnableMetrics bool
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		AuthSecret:         envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		EnableLocalAuth:    envBool("ENABLE_LOCAL_AUTH", true),
		AdminUser:          envOr("ADMIN_USER", "admin"),
		AdminPassHash:      envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://lms.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010,http://localhost:3020"),
		PolicyFile:         os.Getenv("GRADING_POLICY_FILE"),
		PassingScore:       envFloat("PASSING_SCORE"),
		StrictMode:         envBoolPtr("STRICT_MODE"),
		LogLevel:           strings.ToLower(envOr("LOG_LEVEL", "info")),
		EnableMetrics:      envBool("ENABLE_METRICS", true),
	}
}

var validate = validator.New()

// Validate checks the struct tags above.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// CORSOrigins returns the allowed origins for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// GradingPolicy loads PolicyFile and applies the PASSING_SCORE and
// STRICT_MODE overrides on top of it.
func (c Config) GradingPolicy() (grading.Policy, error) {
	p, err := grading.LoadPolicy(c.PolicyFile)
	if err != nil {
		return grading.Policy{}, err
	}
	if c.PassingScore != nil {
		p.PassingScore = *c.PassingScore
	}
	if c.StrictMode != nil {
		p.StrictMode = *c.StrictMode
	}
	return p, p.Validate()
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	if b := envBoolPtr(k); b != nil {
		return *b
	}
	return def
}
func envBoolPtr(k string) *bool {
	var b bool
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		b = true
	case "0", "false", "FALSE", "no", "NO":
		b = false
	default:
		return nil
	}
	return &b
}
func envFloat(k string) *float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
