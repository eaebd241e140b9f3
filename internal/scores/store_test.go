package scores

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/scorecheck/internal/db"
	"github.com/mind-engage/scorecheck/internal/grading"
)

// fakeClock returns increasing timestamps one second apart.
func fakeClock() func() time.Time {
	t := time.Unix(1_700_000_000, 0)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newMemory(t *testing.T) Store {
	t.Helper()
	s := NewInMemoryStore().(*memoryStore)
	s.now = fakeClock()
	return s
}

func newSQLite(t *testing.T) Store {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })
	s := NewSQLStore(dbh, string(db.DriverSQLite))
	s.now = fakeClock()
	return s
}

func check(subject string, score any, opts ...grading.Option) Check {
	raw, _ := json.Marshal(score)
	return Check{
		Subject: subject,
		Source:  SourceSingle,
		Input:   raw,
		Result:  grading.ValidateScore(score, opts...),
	}
}

func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, newMemory(t)) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLite(t)) })
}

func TestStore_RecordGet(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		strict := true
		c := check("alice", 75, grading.WithBonusCategories("creativity"))
		c.Options = grading.Options{StrictMode: &strict, BonusCategories: []string{"creativity"}}

		saved, err := s.Record(ctx, c)
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.NotZero(t, saved.CreatedAt)

		got, err := s.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, "alice", got.Subject)
		assert.Equal(t, SourceSingle, got.Source)
		assert.JSONEq(t, `75`, string(got.Input))
		assert.Equal(t, c.Options, got.Options)
		assert.Equal(t, 77.0, got.Result.Score)
		assert.Equal(t, grading.GradeC, got.Result.Grade)
		assert.True(t, got.Result.Valid)
		assert.True(t, got.Result.Passed)
		assert.Equal(t, []string{}, got.Result.Errors)

		_, err = s.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_RecordKeepsErrors(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		saved, err := s.Record(ctx, check("bob", 100.5, grading.WithStrictMode(true)))
		require.NoError(t, err)

		got, err := s.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.False(t, got.Result.Valid)
		assert.Equal(t, []string{grading.MsgNotInteger, grading.MsgOutOfRange}, got.Result.Errors)
	})
}

func TestStore_List(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		var ids []string
		for _, c := range []Check{
			check("alice", 95),
			check("alice", 55),
			check("bob", 85),
			check("alice", "oops"),
			check("alice", 92),
		} {
			saved, err := s.Record(ctx, c)
			require.NoError(t, err)
			ids = append(ids, saved.ID)
		}

		all, err := s.List(ctx, ListOpts{})
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, ids[4], all[0].ID, "newest first")
		assert.Equal(t, ids[0], all[4].ID)

		mine, err := s.List(ctx, ListOpts{Subject: "alice"})
		require.NoError(t, err)
		assert.Len(t, mine, 4)

		as, err := s.List(ctx, ListOpts{Subject: "alice", Grade: grading.GradeA})
		require.NoError(t, err)
		require.Len(t, as, 2)
		assert.Equal(t, ids[4], as[0].ID)
		assert.Equal(t, ids[0], as[1].ID)

		invalid := false
		bad, err := s.List(ctx, ListOpts{Valid: &invalid})
		require.NoError(t, err)
		require.Len(t, bad, 1)
		assert.Equal(t, ids[3], bad[0].ID)

		page, err := s.List(ctx, ListOpts{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, ids[3], page[0].ID)
		assert.Equal(t, ids[2], page[1].ID)

		empty, err := s.List(ctx, ListOpts{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestStore_ListSameMillisecond(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		switch st := s.(type) {
		case *memoryStore:
			st.now = time.Now
		case *SQLStore:
			st.now = time.Now
		}

		var ids []string
		for i := range 20 {
			saved, err := s.Record(ctx, check("alice", 50+i))
			require.NoError(t, err)
			ids = append(ids, saved.ID)
		}

		list, err := s.List(ctx, ListOpts{})
		require.NoError(t, err)
		require.Len(t, list, len(ids))
		for i, c := range list {
			assert.Equal(t, ids[len(ids)-1-i], c.ID, "position %d", i)
		}
	})
}

func TestStore_ListEqualTimestamps(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		frozen := func() time.Time { return time.Unix(1_700_000_000, 0) }
		switch st := s.(type) {
		case *memoryStore:
			st.now = frozen
		case *SQLStore:
			st.now = frozen
		}

		var ids []string
		for i := range 10 {
			saved, err := s.Record(ctx, check("alice", 60+i))
			require.NoError(t, err)
			ids = append(ids, saved.ID)
		}

		list, err := s.List(ctx, ListOpts{Limit: 3, Offset: 2})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{ids[7], ids[6], ids[5]}, []string{list[0].ID, list[1].ID, list[2].ID})
	})
}

func TestStore_Stats(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, c := range []Check{
			check("alice", 95),
			check("alice", 55),
			check("alice", nil),
			check("bob", 70),
		} {
			_, err := s.Record(ctx, c)
			require.NoError(t, err)
		}

		st, err := s.Stats(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 3, st.Total)
		assert.Equal(t, 2, st.Valid)
		assert.Equal(t, 1, st.Passed)
		assert.Equal(t, 75.0, st.MeanScore)
		assert.Equal(t, 1, st.ByGrade[grading.GradeA])
		assert.Equal(t, 1, st.ByGrade[grading.GradeF])
		assert.Equal(t, 0, st.ByGrade[grading.GradeB])

		st, err = s.Stats(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 4, st.Total)
		assert.Equal(t, 3, st.Valid)
		assert.Equal(t, 2, st.Passed)
		assert.Equal(t, 1, st.ByGrade[grading.GradeC])

		st, err = s.Stats(ctx, "nobody")
		require.NoError(t, err)
		assert.Zero(t, st.Total)
		assert.Zero(t, st.MeanScore)
		assert.Len(t, st.ByGrade, len(grading.Grades))
	})
}
