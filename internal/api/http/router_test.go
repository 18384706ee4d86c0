package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	api "github.com/jobiai/jobiai-assess/internal/api/http"
	authmw "github.com/jobiai/jobiai-assess/internal/auth/middleware"
	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/db"
	"github.com/jobiai/jobiai-assess/internal/events"
	"github.com/jobiai/jobiai-assess/internal/gateway"
	"github.com/jobiai/jobiai-assess/internal/notify"
	"github.com/jobiai/jobiai-assess/internal/quiz"
	"github.com/jobiai/jobiai-assess/internal/session"
	"github.com/jobiai/jobiai-assess/internal/users"
)

type env struct {
	h         http.Handler
	auth      *authmw.AuthService
	quizzes   *quiz.SQLStore
	cands     *candidacy.SQLStore
	notes     *notify.SQLStore
	sessions  *session.Manager
	recruiter string
	candidate string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.OpenMemory(ctx, "api-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })

	e := &env{
		auth:    authmw.NewAuthService("test-secret"),
		quizzes: quiz.NewSQLStore(dbh),
		cands:   candidacy.NewSQLStore(dbh),
		notes:   notify.NewSQLStore(dbh),
	}
	hub := notify.NewHub(nil, nil)
	t.Cleanup(hub.Close)
	evlog := events.NewEventLog(dbh, nil)
	svc := &notify.Service{Store: e.notes, Broadcast: hub, Events: evlog, Quizzes: e.quizzes}
	local := &gateway.Local{Quizzes: e.quizzes, Candidacies: e.cands, Observer: svc}
	sub := gateway.NewSubmitter(local, gateway.NewSQLPendingLog(dbh))
	e.sessions = session.NewManager(local, sub.SessionHook())
	t.Cleanup(e.sessions.Shutdown)

	e.h = api.NewRouter(api.Deps{
		Auth:          e.auth,
		Users:         users.NewStore(dbh),
		Quizzes:       e.quizzes,
		Candidacies:   e.cands,
		Local:         local,
		Sessions:      e.sessions,
		Notifications: e.notes,
		Hub:           hub,
		Notifier:      svc,
		DB:            dbh,
		Events:        evlog,
		EnableSignup:  true,
	})
	e.recruiter, _ = e.auth.IssueJWT("rec-1", "recruiter")
	e.candidate, _ = e.auth.IssueJWT("cand-1", "candidate")
	return e
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const quizBody = `{
  "title": "Go basics",
  "jobPostId": "job-1",
  "duration": 5,
  "questions": [
    {"id": "q1", "text": "Go is compiled", "type": "true-false", "correctAnswer": true, "points": 1},
    {"id": "q2", "text": "Pick b", "type": "multiple-choice", "options": ["a", "b"], "correctAnswer": "b", "points": 2},
    {"id": "q3", "text": "Explain", "type": "short-answer", "points": 3}
  ]
}`

func (e *env) createQuiz(t *testing.T) quiz.Quiz {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(quizBody), &body))
	rec := e.do(t, http.MethodPost, "/quizzes", e.recruiter, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[quiz.Quiz](t, rec)
}

func TestQuizzes_RBACAndRedaction(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/quizzes", "", nil).Code)
	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/quizzes", e.candidate, map[string]any{"title": "x"}).Code)

	q := e.createQuiz(t)
	require.Equal(t, "rec-1", q.CreatedBy)

	full := decode[quiz.Quiz](t, e.do(t, http.MethodGet, "/quizzes/"+q.ID, e.recruiter, nil))
	require.Equal(t, "b", full.Questions[1].CorrectAnswer)

	seen := decode[quiz.Quiz](t, e.do(t, http.MethodGet, "/quizzes/"+q.ID, e.candidate, nil))
	for _, qq := range seen.Questions {
		require.Empty(t, qq.CorrectAnswer)
	}

	byJob := decode[[]quiz.Quiz](t, e.do(t, http.MethodGet, "/quizzes/job/job-1", e.candidate, nil))
	require.Len(t, byJob, 1)
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/quizzes/job/none", e.candidate, nil).Code)

	other, _ := e.auth.IssueJWT("rec-2", "recruiter")
	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodDelete, "/quizzes/"+q.ID, other, nil).Code)
	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/quizzes/"+q.ID, e.recruiter, nil).Code)
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/quizzes/"+q.ID, e.recruiter, nil).Code)
}

func TestQuizzes_InvalidBody(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/quizzes", e.recruiter, map[string]any{"title": "no job"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type view struct {
	ID       string           `json:"id"`
	Snapshot session.Snapshot `json:"snapshot"`
	Question *quiz.Question   `json:"question"`
	Result   *session.Result  `json:"result"`
	Pending  bool             `json:"pending"`
	Error    string           `json:"error"`
}

func TestSessions_FullFlow(t *testing.T) {
	e := newEnv(t)
	q := e.createQuiz(t)

	rec := e.do(t, http.MethodPost, "/sessions", e.candidate, map[string]string{"jobPostId": "job-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decode[view](t, rec)
	require.Equal(t, q.ID, v.Snapshot.QuizID)
	require.Equal(t, "q1", v.Question.ID)
	require.Empty(t, v.Question.CorrectAnswer)
	require.InDelta(t, 300, v.Snapshot.Remaining, 5)

	// another candidate cannot see it
	other, _ := e.auth.IssueJWT("cand-2", "candidate")
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/sessions/"+v.ID, other, nil).Code)
	// recruiters do not take quizzes
	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/sessions/"+v.ID, e.recruiter, nil).Code)

	path := "/sessions/" + v.ID
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, path+"/answer", e.candidate, map[string]string{"value": "true"}).Code)
	v = decode[view](t, e.do(t, http.MethodPost, path+"/next", e.candidate, nil))
	require.Equal(t, 1, v.Snapshot.Index)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, path+"/answer", e.candidate, map[string]string{"value": "b"}).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, path+"/answer", e.candidate, map[string]string{"questionId": "q3", "value": "goroutines"}).Code)
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPut, path+"/answer", e.candidate, map[string]string{"questionId": "nope", "value": "x"}).Code)
	v = decode[view](t, e.do(t, http.MethodPost, path+"/previous", e.candidate, nil))
	require.Equal(t, 0, v.Snapshot.Index)

	rec = e.do(t, http.MethodPost, path+"/submit", e.candidate, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decode[view](t, rec)
	require.Equal(t, float64(100), v.Result.Score)
	require.Equal(t, []string{"q3"}, v.Result.NeedsManual)

	require.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, path+"/submit", e.candidate, nil).Code)
	v = decode[view](t, e.do(t, http.MethodGet, path, e.candidate, nil))
	require.NotNil(t, v.Result)
	require.False(t, v.Pending)
	require.Empty(t, v.Error)

	// both saga steps landed
	resp := decode[quiz.Response](t, e.do(t, http.MethodGet, "/quizzes/"+q.ID+"/responses/cand-1", e.candidate, nil))
	require.Equal(t, float64(100), resp.Score)
	mine := decode[[]candidacy.Candidacy](t, e.do(t, http.MethodGet, "/candidacies", e.candidate, nil))
	require.Len(t, mine, 1)
	require.Equal(t, "job-1", mine[0].JobPostID)

	// the recruiter was told about both
	notes := decode[[]notify.Notification](t, e.do(t, http.MethodGet, "/notifications", e.recruiter, nil))
	require.Len(t, notes, 2)
}

func TestSessions_Errors(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/sessions", e.candidate, map[string]string{"jobPostId": "missing"}).Code)
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/sessions", e.candidate, map[string]string{}).Code)
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/sessions/nope", e.candidate, nil).Code)

	e.createQuiz(t)
	v := decode[view](t, e.do(t, http.MethodPost, "/sessions", e.candidate, map[string]string{"jobPostId": "job-1"}))
	again := decode[view](t, e.do(t, http.MethodPost, "/sessions", e.candidate, map[string]string{"jobPostId": "job-1"}))
	require.Equal(t, v.ID, again.ID)

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/sessions/"+v.ID, e.candidate, nil).Code)
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/sessions/"+v.ID, e.candidate, nil).Code)
}

func TestResponses(t *testing.T) {
	e := newEnv(t)
	q := e.createQuiz(t)
	base := "/quizzes/" + q.ID + "/responses"

	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, base, e.candidate, map[string]any{"score": 50}).Code)
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, base, e.candidate, map[string]any{"score": 150, "timeTaken": 3}).Code)

	// a candidate cannot submit for somebody else
	rec := e.do(t, http.MethodPost, base, e.candidate, map[string]any{"candidateId": "cand-9", "score": 40, "timeTaken": 30})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "cand-1", decode[quiz.Response](t, rec).CandidateID)

	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, base, e.candidate, nil).Code)
	require.Len(t, decode[[]quiz.Response](t, e.do(t, http.MethodGet, base, e.recruiter, nil)), 1)

	other, _ := e.auth.IssueJWT("cand-2", "candidate")
	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, base+"/cand-1", other, nil).Code)
	require.Equal(t, "cand-1", decode[quiz.Response](t, e.do(t, http.MethodGet, base+"/cand-1", e.recruiter, nil)).CandidateID)
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, base+"/cand-2", other, nil).Code)

	rec = e.do(t, http.MethodGet, base+"/export.xlsx", e.recruiter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = e.do(t, http.MethodGet, base+"/cand-1/report.pdf", e.recruiter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, base+"/cand-1/report.pdf", e.candidate, nil).Code)
}

func TestCandidacies(t *testing.T) {
	e := newEnv(t)
	e.createQuiz(t)

	rec := e.do(t, http.MethodPost, "/candidacies/apply", e.candidate, map[string]string{"jobPostId": "job-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[candidacy.Candidacy](t, rec)

	rec = e.do(t, http.MethodPost, "/candidacies/apply", e.candidate, map[string]string{"jobPostId": "job-1"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, first.ID, decode[candidacy.Candidacy](t, rec).ID)

	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/candidacies/job/job-1", e.candidate, nil).Code)
	require.Len(t, decode[[]candidacy.Candidacy](t, e.do(t, http.MethodGet, "/candidacies/job/job-1", e.recruiter, nil)), 1)

	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPut, "/candidacies/"+first.ID, e.recruiter, map[string]string{"status": "hired"}).Code)
	rec = e.do(t, http.MethodPut, "/candidacies/"+first.ID, e.recruiter, map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, candidacy.StatusAccepted, decode[candidacy.Candidacy](t, rec).Status)

	notes := decode[[]notify.Notification](t, e.do(t, http.MethodGet, "/notifications", e.candidate, nil))
	require.Len(t, notes, 1)
	require.Equal(t, notify.TypeCandidacyStatus, notes[0].Type)

	other, _ := e.auth.IssueJWT("cand-2", "candidate")
	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodDelete, "/candidacies/"+first.ID, other, nil).Code)
	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/candidacies/"+first.ID, e.candidate, nil).Code)
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodDelete, "/candidacies/"+first.ID, e.candidate, nil).Code)
}

func TestNotifications(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	n, err := e.notes.Create(ctx, notify.Notification{UserID: "cand-1", Type: notify.TypeCandidacyStatus, Message: "hello"})
	require.NoError(t, err)

	count := decode[map[string]int](t, e.do(t, http.MethodGet, "/notifications/unread-count", e.candidate, nil))
	require.Equal(t, 1, count["unread"])

	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/notifications/"+n.ID+"/read", e.recruiter, nil).Code)
	read := decode[notify.Notification](t, e.do(t, http.MethodPost, "/notifications/"+n.ID+"/read", e.candidate, nil))
	require.True(t, read.Read)

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/notifications/"+n.ID, e.candidate, nil).Code)
	require.Empty(t, decode[[]notify.Notification](t, e.do(t, http.MethodGet, "/notifications", e.candidate, nil)))
}

func TestAuth_SignupLoginChangePassword(t *testing.T) {
	e := newEnv(t)

	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "eve", "password": "pw", "role": "admin"}).Code)
	rec := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "alice", "password": "pw1", "role": "recruiter"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "alice", "password": "x"}).Code)

	rec = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decode[map[string]any](t, rec)["access_token"].(string)

	// the token works on recruiter routes
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/quizzes?mine=1", tok, nil).Code)

	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/users/change-password", tok, map[string]string{"old_password": "bad", "new_password": "pw2"}).Code)
	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodPost, "/users/change-password", tok, map[string]string{"old_password": "pw1", "new_password": "pw2"}).Code)
	require.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "pw1"}).Code)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/healthz", "", nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/readyz", "", nil).Code)
}

func TestUsers_AdminOnly(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "bob", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/users", e.recruiter, nil).Code)
	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodPut, "/users/bob/role", e.recruiter, map[string]string{"role": "admin"}).Code)
	admin, _ := e.auth.IssueJWT("admin-1", "admin")
	list := decode[[]users.User](t, e.do(t, http.MethodGet, "/users?role=candidate", admin, nil))
	require.Len(t, list, 1)

	rec = e.do(t, http.MethodPut, "/users/bob/role", admin, map[string]string{"role": "recruiter"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, users.RoleRecruiter, decode[users.User](t, rec).Role)
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPut, "/users/bob/role", admin, map[string]string{"role": "owner"}).Code)
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodPut, "/users/ghost/role", admin, map[string]string{"role": "admin"}).Code)
}

func TestEvents_AdminReadsLog(t *testing.T) {
	e := newEnv(t)
	q := e.createQuiz(t)
	rec := e.do(t, http.MethodPost, "/quizzes/"+q.ID+"/responses", e.candidate, map[string]any{"score": 80, "timeTaken": 42})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	admin, _ := e.auth.IssueJWT("admin-1", "admin")
	require.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/events", e.recruiter, nil).Code)
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/events?after=x", admin, nil).Code)

	type entry struct {
		Offset     int64          `json:"offset"`
		RoutingKey string         `json:"routingKey"`
		Payload    map[string]any `json:"payload"`
	}
	got := decode[[]entry](t, e.do(t, http.MethodGet, "/events", admin, nil))
	require.Len(t, got, 1)
	require.Equal(t, events.QuizCompletedKey, got[0].RoutingKey)
	require.Equal(t, q.ID, got[0].Payload["quizId"])

	rest := decode[[]entry](t, e.do(t, http.MethodGet, fmt.Sprintf("/events?after=%d", got[0].Offset), admin, nil))
	require.Empty(t, rest)
}
