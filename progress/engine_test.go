package progress

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/config"
	"github.com/princinho/drivequiz/logging"
	"github.com/princinho/drivequiz/models"
	"github.com/princinho/drivequiz/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newLearner(t *testing.T, store *testutil.MemStore) string {
	t.Helper()
	u := &models.User{Email: bson.NewObjectID().Hex() + "@example.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u.ID.Hex()
}

func newEngine(store Store, opts Options) *Engine {
	return NewEngine(store, logging.Discard(), opts)
}

func TestSubmit_WorkedExamplePersistsAtomically(t *testing.T) {
	t.Parallel()
	store := testutil.NewMemStore()
	id := newLearner(t, store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := newEngine(store, Options{Now: func() time.Time { return now }})

	stats, err := e.Submit(context.Background(), id, Result{Score: 8, TotalQuestions: 10})
	require.NoError(t, err)
	assert.Equal(t, 80, stats.AvgScore)
	assert.Equal(t, 1, stats.Streak)
	assert.Equal(t, 1, stats.TotalQuizzes)

	stats, err = e.Submit(context.Background(), id, Result{Score: 6, TotalQuestions: 10, QuizType: "rules_of_road"})
	require.NoError(t, err)
	assert.Equal(t, 70, stats.AvgScore)
	assert.Equal(t, 0, stats.Streak)
	assert.Equal(t, 2, stats.TotalQuizzes)

	u, ok := store.User(id)
	require.True(t, ok)
	assert.Equal(t, stats, u.Stats)
	require.Len(t, u.QuizHistory, 2)
	assert.Equal(t, models.QuizHistoryEntry{Score: 8, TotalQuestions: 10, Percentage: 80, QuizType: DefaultQuizType, Date: now}, u.QuizHistory[0])
	assert.Equal(t, "rules_of_road", u.QuizHistory[1].QuizType)
	require.NotNil(t, u.LastQuizDate)
	assert.Equal(t, now, *u.LastQuizDate)
	assert.Equal(t, int64(2), u.StatsVersion)
}

func TestSubmit_SequentialCountsEverySubmission(t *testing.T) {
	t.Parallel()
	store := testutil.NewMemStore()
	id := newLearner(t, store)
	e := newEngine(store, Options{})

	const n = 25
	var sum float64
	for i := 0; i < n; i++ {
		score, total := float64(i%7), 6.0
		sum += score / total * 100
		_, err := e.Submit(context.Background(), id, Result{Score: score, TotalQuestions: total})
		require.NoError(t, err)
	}

	u, _ := store.User(id)
	assert.Equal(t, n, u.Stats.TotalQuizzes)
	assert.Equal(t, n, u.Stats.CompletedQuizzes)
	assert.Len(t, u.QuizHistory, n)
	assert.Equal(t, int(math.Floor(sum/n+0.5)), u.Stats.AvgScore)
}

// latencyStore delays every read and guarded write, so concurrent writers
// overlap the way they do against a real database.
type latencyStore struct {
	*testutil.MemStore
	delay time.Duration
}

func (s latencyStore) LoadStats(ctx context.Context, id string, historyLimit int) (models.StatsSnapshot, error) {
	time.Sleep(s.delay)
	return s.MemStore.LoadStats(ctx, id, historyLimit)
}

func (s latencyStore) CommitQuizResult(ctx context.Context, id string, v int64, stats models.UserStats, entry models.QuizHistoryEntry) (bool, error) {
	time.Sleep(s.delay)
	return s.MemStore.CommitQuizResult(ctx, id, v, stats, entry)
}

func (s latencyStore) ReplaceStats(ctx context.Context, id string, v int64, stats models.UserStats) (bool, error) {
	time.Sleep(s.delay)
	return s.MemStore.ReplaceStats(ctx, id, v, stats)
}

// shippedOptions are the retry settings config.Load uses without overrides.
func shippedOptions() Options {
	return Options{MaxAttempts: config.DefaultStatsMaxAttempts, Backoff: config.DefaultStatsRetryBackoff}
}

// submitConcurrently fires k submissions of 3/4 for id, spread round-robin
// over engines, and returns how many succeeded.
func submitConcurrently(t *testing.T, engines []*Engine, id string, k int) int {
	t.Helper()
	var (
		wg   sync.WaitGroup
		errs = make(chan error, k)
	)
	for i := 0; i < k; i++ {
		e := engines[i%len(engines)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Submit(context.Background(), id, Result{Score: 3, TotalQuestions: 4})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	}
	return ok
}

func TestSubmit_ConcurrentSubmissionsAllSucceed(t *testing.T) {
	t.Parallel()
	for _, k := range []int{8, 16, 32} {
		mem := testutil.NewMemStore()
		id := newLearner(t, mem)
		e := newEngine(latencyStore{MemStore: mem, delay: 2 * time.Millisecond}, shippedOptions())

		ok := submitConcurrently(t, []*Engine{e}, id, k)
		require.Equal(t, k, ok, "k=%d", k)

		u, _ := mem.User(id)
		assert.Equal(t, k, u.Stats.TotalQuizzes, "k=%d", k)
		assert.Len(t, u.QuizHistory, k)
		assert.Equal(t, float64(75*k), u.Stats.PercentageSum)
		assert.Equal(t, 75, u.Stats.AvgScore)
		assert.Equal(t, int64(k), u.StatsVersion)
		assert.Zero(t, e.locks.held())
	}
}

func TestSubmit_MixedScoresUnderContention(t *testing.T) {
	t.Parallel()
	mem := testutil.NewMemStore()
	id := newLearner(t, mem)
	e := newEngine(latencyStore{MemStore: mem, delay: time.Millisecond}, shippedOptions())

	const k = 16
	var (
		wg  sync.WaitGroup
		sum int
	)
	for i := 0; i < k; i++ {
		score := float64(i % 5)
		sum += int(score) * 25
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Submit(context.Background(), id, Result{Score: score, TotalQuestions: 4})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	u, _ := mem.User(id)
	assert.Equal(t, k, u.Stats.TotalQuizzes)
	assert.Equal(t, float64(sum), u.Stats.PercentageSum)
	assert.Equal(t, int(math.Floor(float64(sum)/k+0.5)), u.Stats.AvgScore)
}

// Two engines sharing a store stand in for two server processes: only the
// version guard stands between them.
func TestSubmit_CrossProcessContentionLosesNothing(t *testing.T) {
	t.Parallel()
	mem := testutil.NewMemStore()
	id := newLearner(t, mem)
	store := latencyStore{MemStore: mem, delay: 2 * time.Millisecond}
	engines := []*Engine{newEngine(store, shippedOptions()), newEngine(store, shippedOptions())}

	ok := submitConcurrently(t, engines, id, 16)

	u, _ := mem.User(id)
	assert.Positive(t, ok)
	assert.Equal(t, ok, u.Stats.TotalQuizzes)
	assert.Len(t, u.QuizHistory, ok)
	assert.Equal(t, int64(ok), u.StatsVersion)
}

func TestSubmit_QueuedSubmissionHonoursCancellation(t *testing.T) {
	t.Parallel()
	mem := testutil.NewMemStore()
	id := newLearner(t, mem)
	e := newEngine(mem, shippedOptions())

	release, err := e.locks.acquire(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = e.Submit(ctx, id, Result{Score: 3, TotalQuestions: 4})
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	assert.Zero(t, mem.Commits())

	release()
	assert.Zero(t, e.locks.held())

	_, err = e.Submit(context.Background(), id, Result{Score: 3, TotalQuestions: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Commits())
}

func TestSubmit_RetriesThroughConflicts(t *testing.T) {
	t.Parallel()
	store := testutil.NewMemStore()
	id := newLearner(t, store)
	store.ForceConflicts(3)
	e := newEngine(store, Options{MaxAttempts: 4})

	stats, err := e.Submit(context.Background(), id, Result{Score: 9, TotalQuestions: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalQuizzes)
	assert.Equal(t, 1, store.Commits())
}

func TestSubmit_ConflictExhaustionIsUnavailable(t *testing.T) {
	t.Parallel()
	store := testutil.NewMemStore()
	id := newLearner(t, store)
	store.ForceConflicts(100)
	e := newEngine(store, Options{MaxAttempts: 3, Backoff: time.Millisecond})

	_, err := e.Submit(context.Background(), id, Result{Score: 9, TotalQuestions: 10})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))

	u, _ := store.User(id)
	assert.Zero(t, u.Stats.TotalQuizzes)
	assert.Empty(t, u.QuizHistory)
}

func TestSubmit_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid input never touches the store", func(t *testing.T) {
		store := testutil.NewMemStore()
		store.FailWith(errors.New("should not be called"))
		_, err := newEngine(store, Options{}).Submit(context.Background(), "x", Result{Score: 1, TotalQuestions: 0})
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		store := testutil.NewMemStore()
		_, err := newEngine(store, Options{}).Submit(context.Background(), bson.NewObjectID().Hex(), Result{Score: 1, TotalQuestions: 2})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("store down leaves no partial write", func(t *testing.T) {
		store := testutil.NewMemStore()
		id := newLearner(t, store)
		store.FailWith(errors.New("connection refused"))
		_, err := newEngine(store, Options{}).Submit(context.Background(), id, Result{Score: 1, TotalQuestions: 2})
		assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))

		store.FailWith(nil)
		u, _ := store.User(id)
		assert.Zero(t, u.Stats.TotalQuizzes)
		assert.Empty(t, u.QuizHistory)
	})

	t.Run("cancelled context", func(t *testing.T) {
		store := testutil.NewMemStore()
		id := newLearner(t, store)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newEngine(store, Options{}).Submit(ctx, id, Result{Score: 1, TotalQuestions: 2})
		assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
		assert.Zero(t, store.Commits())
	})
}

func TestRebuild_RepairsDriftedAggregate(t *testing.T) {
	t.Parallel()
	store := testutil.NewMemStore()
	id := store.PutUser(models.User{
		Email: "drift@example.com",
		Role:  models.RoleUser,
		Stats: models.UserStats{AvgScore: 12, Streak: 9, TotalQuizzes: 1, CompletedQuizzes: 1},
		QuizHistory: []models.QuizHistoryEntry{
			{Score: 8, TotalQuestions: 10, Percentage: 80},
			{Score: 6, TotalQuestions: 10, Percentage: 60},
			{Score: 10, TotalQuestions: 10, Percentage: 100},
		},
	})

	stats, err := newEngine(store, Options{}).Rebuild(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 80, stats.AvgScore)
	assert.Equal(t, 1, stats.Streak)
	assert.Equal(t, 3, stats.TotalQuizzes)

	u, _ := store.User(id)
	assert.Equal(t, stats, u.Stats)
	assert.Len(t, u.QuizHistory, 3)
	assert.Equal(t, int64(1), u.StatsVersion)
}

func TestRebuild_UnknownUser(t *testing.T) {
	t.Parallel()
	_, err := newEngine(testutil.NewMemStore(), Options{}).Rebuild(context.Background(), "nope")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
