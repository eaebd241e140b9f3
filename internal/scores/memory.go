package scores

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu     sync.RWMutex
	checks map[string]Check
	order  []string // insertion order
	now    func() time.Time
}

func NewInMemoryStore() Store {
	return &memoryStore{
		checks: map[string]Check{},
		now:    time.Now,
	}
}

func (m *memoryStore) Record(_ context.Context, c Check) (Check, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&c, m.now)
	if _, ok := m.checks[c.ID]; !ok {
		m.order = append(m.order, c.ID)
	}
	m.checks[c.ID] = c
	return c, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Check, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.checks[id]
	if !ok {
		return Check{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Check, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Check, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		c := m.checks[m.order[i]]
		if matches(c, opts) {
			out = append(out, c)
		}
	}
	// newest first; insertion order breaks ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })

	if opts.Offset >= len(out) {
		return []Check{}, nil
	}
	out = out[max(opts.Offset, 0):]
	if n := opts.limit(); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memoryStore) Stats(_ context.Context, subject string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := newStats()
	sum := 0.0
	for _, id := range m.order {
		c := m.checks[id]
		if subject != "" && c.Subject != subject {
			continue
		}
		st.Total++
		if !c.Result.Valid {
			continue
		}
		st.Valid++
		sum += c.Result.Score
		st.ByGrade[c.Result.Grade]++
		if c.Result.Passed {
			st.Passed++
		}
	}
	if st.Valid > 0 {
		st.MeanScore = sum / float64(st.Valid)
	}
	return st, nil
}

func stamp(c *Check, now func() time.Time) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = now().UnixMilli()
	}
	if c.Result.Errors == nil {
		c.Result.Errors = []string{}
	}
}

func matches(c Check, o ListOpts) bool {
	if o.Subject != "" && c.Subject != o.Subject {
		return false
	}
	if o.Grade != "" && c.Result.Grade != o.Grade {
		return false
	}
	if o.Valid != nil && c.Result.Valid != *o.Valid {
		return false
	}
	return true
}
