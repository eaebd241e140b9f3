package scores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/scorecheck/internal/db"
	"github.com/mind-engage/scorecheck/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver db.Driver
	now    func() time.Time
}

func NewSQLStore(dbh *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: dbh, driver: db.Driver(driver), now: time.Now}
}

const checkColumns = `id,subject,source,input_json,options_json,valid,score,passed,grade,errors_json,created_at`

func (s *SQLStore) Record(ctx context.Context, c Check) (Check, error) {
	stamp(&c, s.now)
	opts, err := json.Marshal(c.Options)
	if err != nil {
		return Check{}, err
	}
	errs, err := json.Marshal(c.Result.Errors)
	if err != nil {
		return Check{}, err
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO score_checks (`+checkColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`),
		c.ID, c.Subject, string(c.Source), string(c.Input), string(opts),
		c.Result.Valid, c.Result.Score, c.Result.Passed, string(c.Result.Grade), string(errs), c.CreatedAt)
	if err != nil {
		return Check{}, fmt.Errorf("insert check: %w", err)
	}
	return c, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Check, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+checkColumns+` FROM score_checks WHERE id=?`), id)
	c, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Check{}, ErrNotFound
	}
	return c, err
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Check, error) {
	where, args := whereClause(opts)
	// seq is the insertion order and breaks same-millisecond ties
	query := `SELECT ` + checkColumns + ` FROM score_checks` + where +
		` ORDER BY created_at DESC, seq DESC LIMIT ? OFFSET ?`
	args = append(args, opts.limit(), max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	out := []Check{}
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Stats(ctx context.Context, subject string) (Stats, error) {
	where, args := whereClause(ListOpts{Subject: subject})
	st := newStats()

	if err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM score_checks`+where), args...).Scan(&st.Total); err != nil {
		return Stats{}, fmt.Errorf("count checks: %w", err)
	}

	valid := true
	where, args = whereClause(ListOpts{Subject: subject, Valid: &valid})
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT grade, passed, score FROM score_checks`+where), args...)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	sum := 0.0
	for rows.Next() {
		var (
			grade  string
			passed bool
			score  float64
		)
		if err := rows.Scan(&grade, &passed, &score); err != nil {
			return Stats{}, err
		}
		st.Valid++
		st.ByGrade[grading.Grade(grade)]++
		if passed {
			st.Passed++
		}
		sum += score
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	if st.Valid > 0 {
		st.MeanScore = sum / float64(st.Valid)
	}
	return st, nil
}

func (s *SQLStore) q(query string) string { return db.Rebind(s.driver, query) }

func whereClause(o ListOpts) (string, []any) {
	var conds []string
	var args []any
	if o.Subject != "" {
		conds = append(conds, "subject=?")
		args = append(args, o.Subject)
	}
	if o.Grade != "" {
		conds = append(conds, "grade=?")
		args = append(args, string(o.Grade))
	}
	if o.Valid != nil {
		conds = append(conds, "valid=?")
		args = append(args, *o.Valid)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCheck(sc scanner) (Check, error) {
	var (
		c                     Check
		source, grade         string
		input, opts, errsJSON string
	)
	if err := sc.Scan(&c.ID, &c.Subject, &source, &input, &opts,
		&c.Result.Valid, &c.Result.Score, &c.Result.Passed, &grade, &errsJSON, &c.CreatedAt); err != nil {
		return Check{}, err
	}
	c.Source = Source(source)
	c.Result.Grade = grading.Grade(grade)
	if input != "" {
		c.Input = json.RawMessage(input)
	}
	if err := json.Unmarshal([]byte(opts), &c.Options); err != nil {
		return Check{}, fmt.Errorf("decode options of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(errsJSON), &c.Result.Errors); err != nil || c.Result.Errors == nil {
		c.Result.Errors = []string{}
	}
	return c, nil
}
