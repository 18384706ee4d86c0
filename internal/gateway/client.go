package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/quiz"
)

type Config struct {
	BaseURL string

	// Token is a static bearer token. When empty and ClientID is set the
	// client-credentials flow against TokenURL is used instead.
	Token        string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	Timeout time.Duration
	// HTTPClient is the base transport, mostly for tests.
	HTTPClient *http.Client
}

// HTTPClient talks to the backend REST API.
type HTTPClient struct {
	base string
	http *http.Client
}

func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("gateway: base url required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gateway: base url: %w", err)
	}
	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}

	var h *http.Client
	switch {
	case cfg.Token != "":
		h = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}))
	case cfg.ClientID != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		h = cc.Client(ctx)
	case cfg.HTTPClient != nil:
		c := *cfg.HTTPClient
		h = &c
	default:
		h = &http.Client{}
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &HTTPClient{base: strings.TrimSuffix(cfg.BaseURL, "/"), http: h}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

func statusErr(op string, res *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return &StatusError{Op: op, Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
}

// FetchQuiz returns the first quiz configured for the job post.
func (c *HTTPClient) FetchQuiz(ctx context.Context, jobPostID string) (quiz.Quiz, error) {
	res, err := c.do(ctx, http.MethodGet, "/quizzes/job/"+url.PathEscape(jobPostID), nil)
	if err != nil {
		return quiz.Quiz{}, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return quiz.Quiz{}, ErrQuizNotFound
	}
	if res.StatusCode/100 != 2 {
		return quiz.Quiz{}, statusErr("fetch quiz", res)
	}
	var qs []quiz.Quiz
	if err := json.NewDecoder(res.Body).Decode(&qs); err != nil {
		return quiz.Quiz{}, fmt.Errorf("fetch quiz: decode: %w", err)
	}
	if len(qs) == 0 {
		return quiz.Quiz{}, ErrQuizNotFound
	}
	q := qs[0]
	q.Normalize()
	return q, nil
}

func (c *HTTPClient) CreateQuizResponse(ctx context.Context, r quiz.Response) (quiz.Response, error) {
	res, err := c.do(ctx, http.MethodPost, "/quizzes/"+url.PathEscape(r.QuizID)+"/responses", map[string]any{
		"candidateId": r.CandidateID,
		"score":       r.Score,
		"timeTaken":   r.TimeTaken,
	})
	if err != nil {
		return quiz.Response{}, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return quiz.Response{}, statusErr("create quiz response", res)
	}
	var out quiz.Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return quiz.Response{}, fmt.Errorf("create quiz response: decode: %w", err)
	}
	return out, nil
}

// Apply applies the token's subject to the job. The backend derives the
// candidate from the token, so candidateID is not sent. A 409 means the
// candidate already applied and counts as success.
func (c *HTTPClient) Apply(ctx context.Context, jobPostID, _ string) (candidacy.Candidacy, error) {
	res, err := c.do(ctx, http.MethodPost, "/candidacies/apply", map[string]string{"jobPostId": jobPostID})
	if err != nil {
		return candidacy.Candidacy{}, err
	}
	defer res.Body.Close()
	switch {
	case res.StatusCode == http.StatusConflict:
		var existing candidacy.Candidacy
		if err := json.NewDecoder(res.Body).Decode(&existing); err != nil || existing.ID == "" {
			return candidacy.Candidacy{}, candidacy.ErrAlreadyApplied
		}
		return existing, nil
	case res.StatusCode/100 != 2:
		return candidacy.Candidacy{}, statusErr("apply", res)
	}
	var out candidacy.Candidacy
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return candidacy.Candidacy{}, fmt.Errorf("apply: decode: %w", err)
	}
	return out, nil
}

// CreateQuiz stores a new quiz; the token must carry quiz:create.
func (c *HTTPClient) CreateQuiz(ctx context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	res, err := c.do(ctx, http.MethodPost, "/quizzes", q)
	if err != nil {
		return quiz.Quiz{}, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return quiz.Quiz{}, statusErr("create quiz", res)
	}
	var out quiz.Quiz
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return quiz.Quiz{}, fmt.Errorf("create quiz: decode: %w", err)
	}
	return out, nil
}
