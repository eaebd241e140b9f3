package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/scorecheck/internal/grading"
	"github.com/mind-engage/scorecheck/internal/metrics"
	"github.com/mind-engage/scorecheck/internal/rbac"
	"github.com/mind-engage/scorecheck/internal/scores"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// Scoring bundles what the score handlers need.
type Scoring struct {
	Validator *grading.Validator // deployment policy defaults
	Store     scores.Store
	Metrics   *metrics.Recorder // optional
}

type scoreItem struct {
	Score   json.RawMessage `json:"score"`
	Options grading.Options `json:"options"`
}

type batchReq struct {
	Items []scoreItem `json:"items" validate:"required,min=1,max=500,dive"`
}

type rubricReq struct {
	Rubric  grading.Rubric     `json:"rubric"`
	Awarded map[string]float64 `json:"awarded"`
	Options grading.Options    `json:"options"`
}

type checkResp struct {
	ID string `json:"id"`
	grading.Result
}

type rubricResp struct {
	Total   float64   `json:"total"`
	Notes   []string  `json:"notes"`
	Percent float64   `json:"percent"`
	Check   checkResp `json:"check"`
}

// MountScores registers the score routes on r. Callers must have
// authenticated the request (rbac subject and role in context).
func MountScores(r chi.Router, sc Scoring) {
	r.With(rbac.Require(rbac.PermValidate)).Post("/validate", ValidateHandler(sc))
	r.With(rbac.Require(rbac.PermValidate)).Post("/validate/batch", ValidateBatchHandler(sc))
	r.With(rbac.Require(rbac.PermValidate)).Post("/rubric", RubricHandler(sc))

	view := rbac.RequireAny(rbac.PermViewOwn, rbac.PermViewAll)
	r.With(view).Get("/", ListChecksHandler(sc.Store))
	r.With(view).Get("/stats", StatsHandler(sc.Store))
	r.With(view).Get("/{checkID}", GetCheckHandler(sc.Store))
}

// POST /scores/validate  { "score": 75, "options": {"strict_mode": true, "bonus_categories": [...], "passing_score": 70} }
func ValidateHandler(sc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreItem
		if !decodeBody(w, r, &req) {
			return
		}
		c, err := sc.check(r, scores.SourceSingle, req.Score, req.Options)
		if err != nil {
			slog.ErrorContext(r.Context(), "record check", "error", err)
			http.Error(w, "record check: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, checkResp{ID: c.ID, Result: c.Result})
	}
}

// POST /scores/validate/batch  { "items": [ {"score": 75}, ... ] }
// Results come back in request order. Items are recorded one by one: a
// store failure answers 500 and leaves the earlier items recorded.
func ValidateBatchHandler(sc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchReq
		if !decodeBody(w, r, &req) {
			return
		}
		out := make([]checkResp, 0, len(req.Items))
		for _, it := range req.Items {
			c, err := sc.check(r, scores.SourceBatch, it.Score, it.Options)
			if err != nil {
				slog.ErrorContext(r.Context(), "record batch check", "error", err, "done", len(out))
				http.Error(w, "record check: "+err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, checkResp{ID: c.ID, Result: c.Result})
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": out})
	}
}

// POST /scores/rubric  { "rubric": {...}, "awarded": {"content": 8}, "options": {...} }
func RubricHandler(sc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rubricReq
		if !decodeBody(w, r, &req) {
			return
		}
		total, notes := grading.ScoreRubric(req.Rubric, req.Awarded)
		pct := req.Rubric.Percent(total)
		raw, _ := json.Marshal(pct)
		c, err := sc.check(r, scores.SourceRubric, raw, req.Options)
		if err != nil {
			slog.ErrorContext(r.Context(), "record rubric check", "error", err)
			http.Error(w, "record check: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rubricResp{
			Total:   total,
			Notes:   notes,
			Percent: pct,
			Check:   checkResp{ID: c.ID, Result: c.Result},
		})
	}
}

// GET /scores?grade=A&valid=true&subject=...&limit=50&offset=0
// Without score:view-all the subject filter is forced to the caller.
func ListChecksHandler(store scores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := scores.ListOpts{
			Subject: visibleSubject(r, strings.TrimSpace(q.Get("subject"))),
			Limit:   parseIntDefault(q.Get("limit"), scores.DefaultListLimit),
			Offset:  parseIntDefault(q.Get("offset"), 0),
		}
		if g := strings.TrimSpace(q.Get("grade")); g != "" {
			grade, ok := grading.ParseGrade(strings.ToUpper(g))
			if !ok {
				http.Error(w, "grade must be one of A,B,C,D,F", http.StatusBadRequest)
				return
			}
			opts.Grade = grade
		}
		if v := strings.TrimSpace(q.Get("valid")); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				http.Error(w, "valid must be a boolean", http.StatusBadRequest)
				return
			}
			opts.Valid = &b
		}

		list, err := store.List(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /scores/{checkID}
func GetCheckHandler(store scores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "checkID"))
		if id == "" {
			http.Error(w, "checkID required", http.StatusBadRequest)
			return
		}
		c, err := store.Get(r.Context(), id)
		if errors.Is(err, scores.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if c.Subject != rbac.SubjectFromContext(r.Context()) && !rbac.Can(r.Context(), rbac.PermViewAll) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// GET /scores/stats?subject=...
func StatsHandler(store scores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := visibleSubject(r, strings.TrimSpace(r.URL.Query().Get("subject")))
		st, err := store.Stats(r.Context(), subject)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// check validates one raw score with the request options on top of the
// deployment defaults and records it. Metrics count recorded checks only.
func (sc Scoring) check(r *http.Request, src scores.Source, raw json.RawMessage, opts grading.Options) (scores.Check, error) {
	v := sc.Validator
	if v == nil {
		v = grading.NewValidator()
	}
	res := v.Validate(decodeScore(raw), opts.Apply()...)
	c, err := sc.Store.Record(r.Context(), scores.Check{
		Subject: rbac.SubjectFromContext(r.Context()),
		Source:  src,
		Input:   raw,
		Options: opts,
		Result:  res,
	})
	if err != nil {
		return scores.Check{}, err
	}
	sc.Metrics.Observe(string(src), res)
	return c, nil
}

// decodeScore turns the raw JSON score into the value the validator
// inspects: nil when absent or null, json.Number for numbers.
func decodeScore(raw json.RawMessage) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}
	return v
}

func visibleSubject(r *http.Request, requested string) string {
	if rbac.Can(r.Context(), rbac.PermViewAll) {
		return requested
	}
	return rbac.SubjectFromContext(r.Context())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
