package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobiai/jobiai-assess/internal/quiz"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrForbidden       = errors.New("session belongs to another candidate")
)

// QuizFetcher loads the quiz configured for a job post.
type QuizFetcher interface {
	FetchQuiz(ctx context.Context, jobPostID string) (quiz.Quiz, error)
}

// CompletionHook persists a finished session. It runs once per session,
// on the submitting goroutine or the timer goroutine.
type CompletionHook func(ctx context.Context, r Result) error

type hosted struct {
	id        string
	candidate string
	jobPostID string
	ctrl      *Controller
	createdAt time.Time

	mu      sync.Mutex
	hookErr error
}

func (h *hosted) setHookErr(err error) {
	h.mu.Lock()
	h.hookErr = err
	h.mu.Unlock()
}

func (h *hosted) HookErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hookErr
}

// Manager hosts sessions server side, keyed by id.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*hosted
	active   map[string]string // candidate|job -> session id

	fetcher     QuizFetcher
	hook        CompletionHook
	hookTimeout time.Duration
	opts        []Option
	now         func() time.Time
	log         *zap.Logger
}

type ManagerOption func(*Manager)

// WithControllerOptions is applied to every controller the manager starts.
func WithControllerOptions(opts ...Option) ManagerOption {
	return func(m *Manager) { m.opts = append(m.opts, opts...) }
}

func WithHookTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.hookTimeout = d }
}

func WithManagerLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

func NewManager(f QuizFetcher, hook CompletionHook, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:    make(map[string]*hosted),
		active:      make(map[string]string),
		fetcher:     f,
		hook:        hook,
		hookTimeout: 30 * time.Second,
		now:         time.Now,
		log:         zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func activeKey(candidateID, jobPostID string) string { return candidateID + "|" + jobPostID }

// Start begins a session for the candidate on the job's quiz. An
// in-progress session for the same pair is returned as is.
func (m *Manager) Start(ctx context.Context, jobPostID, candidateID string) (string, *Controller, error) {
	m.mu.Lock()
	if id, ok := m.active[activeKey(candidateID, jobPostID)]; ok {
		if h := m.sessions[id]; h != nil && h.ctrl.State() == StateInProgress {
			m.mu.Unlock()
			return id, h.ctrl, nil
		}
	}
	m.mu.Unlock()

	q, err := m.fetcher.FetchQuiz(ctx, jobPostID)
	if err != nil {
		return "", nil, err
	}

	h := &hosted{
		id:        uuid.NewString(),
		candidate: candidateID,
		jobPostID: jobPostID,
		createdAt: m.now(),
	}
	opts := append([]Option{WithLogger(m.log.With(zap.String("session_id", h.id)))}, m.opts...)
	ctrl, err := Start(q, candidateID, func(r Result) { m.complete(h, r) }, opts...)
	if err != nil {
		return "", nil, fmt.Errorf("start session: %w", err)
	}
	h.ctrl = ctrl

	m.mu.Lock()
	// another Start for the same pair may have won while the quiz was fetched
	if id, ok := m.active[activeKey(candidateID, jobPostID)]; ok {
		if other := m.sessions[id]; other != nil && other.ctrl.State() == StateInProgress {
			m.mu.Unlock()
			ctrl.Close()
			return id, other.ctrl, nil
		}
	}
	m.sessions[h.id] = h
	m.active[activeKey(candidateID, jobPostID)] = h.id
	m.mu.Unlock()
	return h.id, ctrl, nil
}

func (m *Manager) complete(h *hosted, r Result) {
	m.mu.Lock()
	if m.active[activeKey(h.candidate, h.jobPostID)] == h.id {
		delete(m.active, activeKey(h.candidate, h.jobPostID))
	}
	m.mu.Unlock()

	if m.hook == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.hookTimeout)
	defer cancel()
	if r.JobPostID == "" {
		r.JobPostID = h.jobPostID
	}
	if err := m.hook(ctx, r); err != nil {
		h.setHookErr(err)
		m.log.Error("completion hook failed",
			zap.String("session_id", h.id),
			zap.Bool("forced", r.Forced),
			zap.Error(err))
	}
}

func (m *Manager) lookup(id, candidateID string) (*hosted, error) {
	m.mu.Lock()
	h, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if h.candidate != candidateID {
		return nil, ErrForbidden
	}
	return h, nil
}

func (m *Manager) Get(id, candidateID string) (*Controller, error) {
	h, err := m.lookup(id, candidateID)
	if err != nil {
		return nil, err
	}
	return h.ctrl, nil
}

// Submit submits the session and reports whether the completion hook
// stored it. The result is valid even when the hook failed.
func (m *Manager) Submit(id, candidateID string) (Result, error) {
	h, err := m.lookup(id, candidateID)
	if err != nil {
		return Result{}, err
	}
	res, err := h.ctrl.Submit()
	if err != nil {
		return Result{}, err
	}
	return res, h.HookErr()
}

// HookErr reports why a finished session could not be stored, if it
// could not.
func (m *Manager) HookErr(id, candidateID string) error {
	h, err := m.lookup(id, candidateID)
	if err != nil {
		return err
	}
	return h.HookErr()
}

// Close abandons the session and forgets it.
func (m *Manager) Close(id, candidateID string) error {
	h, err := m.lookup(id, candidateID)
	if err != nil {
		return err
	}
	h.ctrl.Close()
	m.mu.Lock()
	delete(m.sessions, id)
	if m.active[activeKey(h.candidate, h.jobPostID)] == id {
		delete(m.active, activeKey(h.candidate, h.jobPostID))
	}
	m.mu.Unlock()
	return nil
}

// Prune forgets finished sessions created before the cutoff.
func (m *Manager) Prune(before time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, h := range m.sessions {
		st := h.ctrl.State()
		if (st == StateCompleted || st == StateClosed) && h.createdAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown abandons every open session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	hs := make([]*hosted, 0, len(m.sessions))
	for _, h := range m.sessions {
		hs = append(hs, h)
	}
	m.sessions = make(map[string]*hosted)
	m.active = make(map[string]string)
	m.mu.Unlock()
	for _, h := range hs {
		h.ctrl.Close()
	}
}
