// Package testutil provides an in-memory store with the same version-guarded
// write semantics as the Mongo store, for engine and handler tests.
package testutil

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/princinho/drivequiz/database"
	"github.com/princinho/drivequiz/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type MemStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	quizzes []models.Quiz
	topics  []models.Topic

	err            error
	forcedConflict int
	commits        int
}

func NewMemStore() *MemStore {
	return &MemStore{users: make(map[string]*models.User)}
}

// FailWith makes every subsequent call return err until cleared with nil.
func (m *MemStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ForceConflicts makes the next n guarded writes report a version miss.
func (m *MemStore) ForceConflicts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forcedConflict = n
}

// Commits counts successful guarded writes.
func (m *MemStore) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// User returns a copy of the stored user, history included.
func (m *MemStore) User(id string) (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, false
	}
	return cloneUser(u, true), true
}

// PutUser stores u as-is, bypassing normalization. Useful for legacy fixtures.
func (m *MemStore) PutUser(u models.User) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	c := cloneUser(&u, true)
	m.users[u.ID.Hex()] = &c
	return u.ID.Hex()
}

func (m *MemStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	database.NormalizeNewUser(u, time.Now().UTC())
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	c := cloneUser(u, true)
	m.users[u.ID.Hex()] = &c
	return nil
}

func (m *MemStore) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.User{}, m.err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u, false), nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (m *MemStore) FindUserByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.User{}, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	return cloneUser(u, false), nil
}

func (m *MemStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	u, ok := m.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemStore) LoadStats(_ context.Context, id string, historyLimit int) (models.StatsSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.StatsSnapshot{}, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return models.StatsSnapshot{}, database.ErrNotFound
	}
	snap := models.StatsSnapshot{Stats: u.Stats, Version: u.StatsVersion}
	if u.LastQuizDate != nil {
		d := *u.LastQuizDate
		snap.LastQuizDate = &d
	}
	switch {
	case historyLimit == database.AllHistory:
		snap.History = slices.Clone(u.QuizHistory)
	case historyLimit > 0:
		from := max(len(u.QuizHistory)-historyLimit, 0)
		snap.History = slices.Clone(u.QuizHistory[from:])
	}
	return snap, nil
}

func (m *MemStore) CommitQuizResult(_ context.Context, id string, expectedVersion int64, stats models.UserStats, entry models.QuizHistoryEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	u, ok := m.users[id]
	if !ok || !m.versionMatches(u, expectedVersion) {
		return false, nil
	}
	u.Stats = stats
	u.StatsVersion++
	d := entry.Date
	u.LastQuizDate = &d
	u.UpdatedAt = d
	u.QuizHistory = append(u.QuizHistory, entry)
	m.commits++
	return true, nil
}

func (m *MemStore) ReplaceStats(_ context.Context, id string, expectedVersion int64, stats models.UserStats) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	u, ok := m.users[id]
	if !ok || !m.versionMatches(u, expectedVersion) {
		return false, nil
	}
	u.Stats = stats
	u.StatsVersion++
	m.commits++
	return true, nil
}

func (m *MemStore) versionMatches(u *models.User, expected int64) bool {
	if m.forcedConflict > 0 {
		m.forcedConflict--
		return false
	}
	return u.StatsVersion == expected
}

func (m *MemStore) SeedAdmin(_ context.Context, email, passwordHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return false, nil
		}
	}
	u := &models.User{Email: email, PasswordHash: passwordHash, Role: models.RoleAdmin, IsActive: true}
	database.NormalizeNewUser(u, time.Now().UTC())
	m.users[u.ID.Hex()] = u
	return true, nil
}

func (m *MemStore) InsertQuiz(_ context.Context, q *models.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	now := time.Now().UTC()
	if q.ID.IsZero() {
		q.ID = bson.NewObjectID()
	}
	q.CreatedAt, q.UpdatedAt = now, now
	c := *q
	c.Options = slices.Clone(q.Options)
	m.quizzes = append(m.quizzes, c)
	return nil
}

func (m *MemStore) ListQuizzes(_ context.Context, query database.QuizQuery) ([]models.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Quiz, 0)
	for i := len(m.quizzes) - 1; i >= 0; i-- {
		q := m.quizzes[i]
		if !q.IsActive || (query.Category != "" && q.Category != query.Category) {
			continue
		}
		out = append(out, q)
	}
	if query.Random && query.Limit > 0 {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (m *MemStore) InsertTopic(_ context.Context, t *models.Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.topics {
		if existing.Slug == t.Slug {
			return database.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = bson.NewObjectID()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	c := *t
	c.Steps = slices.Clone(t.Steps)
	m.topics = append(m.topics, c)
	return nil
}

func (m *MemStore) TopicExists(_ context.Context, title, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	title = strings.TrimSpace(title)
	for _, t := range m.topics {
		if strings.EqualFold(t.Title, title) || t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) ListTopics(_ context.Context) ([]models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Topic, 0, len(m.topics))
	for i := len(m.topics) - 1; i >= 0; i-- {
		out = append(out, m.topics[i])
	}
	return out, nil
}

func cloneUser(u *models.User, withHistory bool) models.User {
	c := *u
	c.QuizHistory = nil
	if withHistory {
		c.QuizHistory = slices.Clone(u.QuizHistory)
	}
	c.Progress.CompletedTopics = slices.Clone(u.Progress.CompletedTopics)
	if u.LastQuizDate != nil {
		d := *u.LastQuizDate
		c.LastQuizDate = &d
	}
	return c
}
