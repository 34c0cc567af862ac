package submissionhandlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	submissionservice "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var player = authdomain.Identity{UserID: 7, Username: "alice"}

func newRouter(svc *FakeService, limiter *ratelimit.KeyedLimiter) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewSubmissionHandlers(svc, limiter, logger, noop.NewTracerProvider().Tracer("test"))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(authdomain.WithIdentity(req.Context(), player)))
		})
	})
	r.Post("/api/challenges/{id}/submit", h.HandleSubmit)
	r.Get("/api/submissions", h.HandleList)
	r.Get("/api/submissions/stats", h.HandleStats)
	r.Get("/api/submissions/user/{id}", h.HandleUserSubmissions)
	r.Get("/api/submissions/challenge/{id}", h.HandleChallengeSubmissions)
	r.Get("/api/admin/submissions", h.HandleAdminList)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleSubmit(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		submit     func(ctx context.Context, caller authdomain.Identity, challengeID int64, flag string) (*submissionservice.Verdict, error)
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name: "correct flag",
			path: "/api/challenges/3/submit",
			body: `{"flag":"CTF{x}"}`,
			submit: func(ctx context.Context, caller authdomain.Identity, challengeID int64, flag string) (*submissionservice.Verdict, error) {
				if caller.UserID != 7 || challengeID != 3 || flag != "CTF{x}" {
					return nil, submissionservice.ErrChallengeNotFound
				}
				return &submissionservice.Verdict{Message: "Correct flag!", IsCorrect: true, Points: 500, FirstBlood: true}, nil
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"message": "Correct flag!", "is_correct": true, "points": float64(500), "first_blood": true},
		},
		{
			name:       "incorrect flag omits points",
			path:       "/api/challenges/3/submit",
			body:       `{"flag":"nope"}`,
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"message": "Incorrect flag!", "is_correct": false},
		},
		{
			name: "already solved",
			path: "/api/challenges/3/submit",
			body: `{"flag":"CTF{x}"}`,
			submit: func(ctx context.Context, caller authdomain.Identity, challengeID int64, flag string) (*submissionservice.Verdict, error) {
				return nil, submissionservice.ErrAlreadySolved
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"message": "You have already solved this challenge!"},
		},
		{
			name:       "bad challenge id",
			path:       "/api/challenges/abc/submit",
			body:       `{"flag":"CTF{x}"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "busy challenge asks for retry",
			path: "/api/challenges/3/submit",
			body: `{"flag":"CTF{x}"}`,
			submit: func(ctx context.Context, caller authdomain.Identity, challengeID int64, flag string) (*submissionservice.Verdict, error) {
				return nil, submissionservice.ErrChallengeBusy
			},
			wantStatus: http.StatusConflict,
			wantBody:   map[string]any{"message": "Challenge is busy, please retry!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&FakeService{SubmitFunc: tt.submit}, nil)
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, decodeBody(t, rec))
			}
		})
	}
}

func TestHandleSubmitRateLimited(t *testing.T) {
	calls := 0
	svc := &FakeService{SubmitFunc: func(ctx context.Context, caller authdomain.Identity, challengeID int64, flag string) (*submissionservice.Verdict, error) {
		calls++
		return &submissionservice.Verdict{Message: "Incorrect flag!"}, nil
	}}
	router := newRouter(svc, ratelimit.New(0, 2))

	var codes []int
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/challenges/1/submit", strings.NewReader(`{"flag":"a"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, calls)
}

func TestHandleList(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantQuery  submissionservice.ListQuery
		wantStatus int
	}{
		{
			name:       "defaults",
			path:       "/api/submissions",
			wantQuery:  submissionservice.ListQuery{Page: httpx.PageRequest{Page: 1, PerPage: 20}},
			wantStatus: http.StatusOK,
		},
		{
			name: "filters",
			path: "/api/submissions?page=2&per_page=5&challenge_id=4&user_id=7&since=yesterday",
			wantQuery: submissionservice.ListQuery{
				Page:        httpx.PageRequest{Page: 2, PerPage: 5},
				UserID:      7,
				ChallengeID: 4,
				Since:       "yesterday",
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin listing defaults to fifty per page",
			path:       "/api/admin/submissions",
			wantQuery:  submissionservice.ListQuery{Page: httpx.PageRequest{Page: 1, PerPage: 50}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "non numeric filter",
			path:       "/api/submissions?challenge_id=x",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got submissionservice.ListQuery
			svc := &FakeService{ListSubmissionsFunc: func(ctx context.Context, caller authdomain.Identity, q submissionservice.ListQuery) (*submissionservice.SubmissionPage, error) {
				got = q
				return &submissionservice.SubmissionPage{Submissions: []submissionservice.SubmissionView{}, CurrentPage: q.Page.Page}, nil
			}}
			rec := httptest.NewRecorder()
			newRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantQuery, got)
			}
		})
	}
}

func TestHandleUserAndChallengeSubmissions(t *testing.T) {
	var userID, challengeID int64
	svc := &FakeService{
		ListUserFunc: func(ctx context.Context, caller authdomain.Identity, id int64, page httpx.PageRequest) (*submissionservice.SubmissionPage, error) {
			userID = id
			if id != caller.UserID {
				return nil, submissionservice.ErrAccessDenied
			}
			return &submissionservice.SubmissionPage{}, nil
		},
		ListChallengeFunc: func(ctx context.Context, caller authdomain.Identity, id int64, page httpx.PageRequest) (*submissionservice.SubmissionPage, error) {
			challengeID = id
			return &submissionservice.SubmissionPage{}, nil
		},
	}
	router := newRouter(svc, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/submissions/user/7", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), userID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/submissions/user/9", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/submissions/challenge/12", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), challengeID)
}

func TestHandleStats(t *testing.T) {
	svc := &FakeService{GetStatsFunc: func(ctx context.Context, caller authdomain.Identity) (*submissionservice.Stats, error) {
		return &submissionservice.Stats{TotalSubmissions: 10, CorrectSubmissions: 4, AccuracyRate: 40}, nil
	}}
	rec := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/submissions/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(10), stats["total_submissions"])
	assert.Equal(t, float64(40), stats["accuracy_rate"])
}
