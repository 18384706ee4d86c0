package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/gateway"
	"github.com/jobiai/jobiai-assess/internal/quiz"
)

func newClient(t *testing.T, h http.Handler) *gateway.HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := gateway.NewHTTPClient(gateway.Config{BaseURL: srv.URL + "/", Token: "tok-123", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestHTTPClient_FetchQuizSendsBearer(t *testing.T) {
	var auth atomic.Value
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		if r.URL.Path != "/quizzes/job/job-1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"_id":"first","title":"A","jobPostId":"job-1","questions":[{"text":"x","type":"true-false","correctAnswer":true,"points":1}]},{"id":"second","title":"B","jobPostId":"job-1"}]`))
	}))

	q, err := c.FetchQuiz(context.Background(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if got := auth.Load(); got != "Bearer tok-123" {
		t.Fatalf("authorization = %v", got)
	}
	if q.ID != "first" || q.Duration != quiz.DefaultDurationMinutes {
		t.Fatalf("unexpected quiz %+v", q)
	}
	if q.Questions[0].ID != "q-0" || q.Questions[0].CorrectAnswer != "true" {
		t.Fatalf("question not normalized: %+v", q.Questions[0])
	}
}

func TestHTTPClient_FetchQuizNotFound(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"404":   func(w http.ResponseWriter, r *http.Request) { http.Error(w, "no quizzes", http.StatusNotFound) },
		"empty": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`[]`)) },
	} {
		t.Run(name, func(t *testing.T) {
			c := newClient(t, h)
			if _, err := c.FetchQuiz(context.Background(), "job-1"); !errors.Is(err, gateway.ErrQuizNotFound) {
				t.Fatalf("expected ErrQuizNotFound, got %v", err)
			}
		})
	}
}

func TestHTTPClient_CreateQuizResponse(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/quizzes/quiz-1/responses" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["candidateId"] != "cand-1" || body["score"] != float64(50) || body["timeTaken"] != float64(42) {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"r-1","quizId":"quiz-1","candidateId":"cand-1","score":50,"timeTaken":42}`))
	}))
	r, err := c.CreateQuizResponse(context.Background(), quiz.Response{QuizID: "quiz-1", CandidateID: "cand-1", Score: 50, TimeTaken: 42})
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != "r-1" {
		t.Fatalf("unexpected response %+v", r)
	}
}

func TestHTTPClient_ApplyConflictIsSuccess(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"id":"cand-9","jobPostId":"job-1","candidateId":"u","status":"pending"}`))
	}))
	got, err := c.Apply(context.Background(), "job-1", "u")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "cand-9" || got.Status != candidacy.StatusPending {
		t.Fatalf("unexpected candidacy %+v", got)
	}

	bare := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "already applied", http.StatusConflict)
	}))
	if _, err := bare.Apply(context.Background(), "job-1", "u"); !errors.Is(err, candidacy.ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
}

func TestHTTPClient_StatusError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	_, err := c.Apply(context.Background(), "job-1", "u")
	var se *gateway.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusBadGateway || !se.Temporary() || !strings.Contains(se.Error(), "boom") {
		t.Fatalf("unexpected %+v", se)
	}
}

func TestHTTPClient_ClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"cc-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/quizzes/job/job-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer cc-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"q","title":"T","jobPostId":"job-1","duration":5}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := gateway.NewHTTPClient(gateway.Config{
		BaseURL:      srv.URL,
		TokenURL:     srv.URL + "/oauth/token",
		ClientID:     "svc",
		ClientSecret: "secret",
		HTTPClient:   srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	q, err := c.FetchQuiz(context.Background(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if q.ID != "q" || q.Duration != 5 {
		t.Fatalf("unexpected quiz %+v", q)
	}
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	if _, err := gateway.NewHTTPClient(gateway.Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestHTTPClient_CreateQuiz(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/quizzes" {
			http.NotFound(w, r)
			return
		}
		var q quiz.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil || q.Title != "Seeded" {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		q.ID = "new-id"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(q)
	}))
	got, err := c.CreateQuiz(context.Background(), quiz.Quiz{Title: "Seeded", JobPostID: "job-1"})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "new-id" {
		t.Fatalf("unexpected quiz %+v", got)
	}

	bad := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	var se *gateway.StatusError
	if _, err := bad.CreateQuiz(context.Background(), quiz.Quiz{Title: "x"}); !errors.As(err, &se) || se.Status != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}
}
