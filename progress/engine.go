package progress

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/database"
	"github.com/princinho/drivequiz/logging"
	"github.com/princinho/drivequiz/models"
)

// Store is the persistence the engine needs. Commits are conditional on the
// version read beforehand and report false when another writer got there
// first.
type Store interface {
	LoadStats(ctx context.Context, userID string, historyLimit int) (models.StatsSnapshot, error)
	CommitQuizResult(ctx context.Context, userID string, expectedVersion int64, stats models.UserStats, entry models.QuizHistoryEntry) (bool, error)
	ReplaceStats(ctx context.Context, userID string, expectedVersion int64, stats models.UserStats) (bool, error)
}

// DefaultMaxAttempts is used when Options.MaxAttempts is not positive.
const DefaultMaxAttempts = 10

var errVersionConflict = errors.New("stats version changed during update")

type Options struct {
	// MaxAttempts bounds the read-compute-commit loop. Defaults to DefaultMaxAttempts.
	MaxAttempts int
	// Backoff times the attempt number caps the random wait between retries.
	Backoff time.Duration
	// CommitTimeout bounds the write once it has been started.
	CommitTimeout time.Duration
	Now           func() time.Time
}

type Engine struct {
	store         Store
	locks         *userLocks
	log           logging.Logger
	maxAttempts   int
	backoff       time.Duration
	commitTimeout time.Duration
	now           func() time.Time
}

func NewEngine(store Store, log logging.Logger, opts Options) *Engine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:         store,
		locks:         newUserLocks(),
		log:           log,
		maxAttempts:   opts.MaxAttempts,
		backoff:       opts.Backoff,
		commitTimeout: opts.CommitTimeout,
		now:           opts.Now,
	}
}

// Submit records one quiz result for userID and returns the updated stats.
//
// Submissions for the same user are queued within the process. Each attempt
// reads the current aggregate and its version, applies the result and commits
// stats, lastQuizDate and the new history entry in one guarded update. A race
// lost to another process is retried after a jittered wait; after MaxAttempts
// the caller gets Unavailable and nothing has been written.
func (e *Engine) Submit(ctx context.Context, userID string, r Result) (models.UserStats, error) {
	r, err := r.Validate()
	if err != nil {
		return models.UserStats{}, err
	}
	pct := Percentage(r.Score, r.TotalQuestions)

	release, err := e.locks.acquire(ctx, userID)
	if err != nil {
		return models.UserStats{}, apperr.Unavailable("request cancelled before stats were saved", err)
	}
	defer release()

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.UserStats{}, apperr.Unavailable("request cancelled before stats were saved", err)
		}

		snap, err := e.store.LoadStats(ctx, userID, database.NoHistory)
		if err != nil {
			return models.UserStats{}, storeErr(err)
		}

		next := Apply(snap.Stats, pct)
		entry := models.QuizHistoryEntry{
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
			Percentage:     pct,
			QuizType:       r.QuizType,
			Date:           e.now().UTC(),
		}

		ok, err := e.commit(ctx, func(cctx context.Context) (bool, error) {
			return e.store.CommitQuizResult(cctx, userID, snap.Version, next, entry)
		})
		if err != nil {
			return models.UserStats{}, storeErr(err)
		}
		if ok {
			if attempt > 1 {
				e.log.Debug(ctx, "stats committed after retry", "user_id", userID, "attempt", attempt)
			}
			return next, nil
		}

		e.log.Debug(ctx, "stats version conflict", "user_id", userID, "attempt", attempt, "version", snap.Version)
		if err := e.wait(ctx, attempt); err != nil {
			return models.UserStats{}, apperr.Unavailable("request cancelled before stats were saved", err)
		}
	}

	e.log.Warn(ctx, "stats update gave up after repeated conflicts", "user_id", userID, "attempts", e.maxAttempts)
	return models.UserStats{}, apperr.Unavailable("too many concurrent updates, try again",
		apperr.Wrap(apperr.KindConflict, "stats version conflict", errVersionConflict))
}

// Rebuild recomputes userID's aggregate from the stored history and writes it
// back under the version guard.
func (e *Engine) Rebuild(ctx context.Context, userID string) (models.UserStats, error) {
	release, err := e.locks.acquire(ctx, userID)
	if err != nil {
		return models.UserStats{}, apperr.Unavailable("request cancelled before stats were saved", err)
	}
	defer release()

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		snap, err := e.store.LoadStats(ctx, userID, database.AllHistory)
		if err != nil {
			return models.UserStats{}, storeErr(err)
		}

		rebuilt := Rebuild(snap.History)
		ok, err := e.commit(ctx, func(cctx context.Context) (bool, error) {
			return e.store.ReplaceStats(cctx, userID, snap.Version, rebuilt)
		})
		if err != nil {
			return models.UserStats{}, storeErr(err)
		}
		if ok {
			if rebuilt != snap.Stats {
				e.log.Info(ctx, "stats rebuilt from history", "user_id", userID,
					"old_avg", snap.Stats.AvgScore, "new_avg", rebuilt.AvgScore,
					"old_total", snap.Stats.TotalQuizzes, "new_total", rebuilt.TotalQuizzes)
			}
			return rebuilt, nil
		}
		if err := e.wait(ctx, attempt); err != nil {
			return models.UserStats{}, apperr.Unavailable("request cancelled before stats were saved", err)
		}
	}
	return models.UserStats{}, apperr.Unavailable("too many concurrent updates, try again",
		apperr.Wrap(apperr.KindConflict, "stats version conflict", errVersionConflict))
}

// commit runs the guarded write detached from the request's cancellation, so
// a client hanging up mid-write cannot leave the outcome unknown.
func (e *Engine) commit(ctx context.Context, fn func(context.Context) (bool, error)) (bool, error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.commitTimeout)
	defer cancel()
	return fn(cctx)
}

// wait sleeps a uniformly random duration in [0, backoff*attempt) so that
// writers which lost the same round do not collide again.
func (e *Engine) wait(ctx context.Context, attempt int) error {
	ceiling := e.backoff * time.Duration(attempt)
	if ceiling <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(rand.N(ceiling))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func storeErr(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	return apperr.Unavailable("statistics store unavailable", err)
}
