package leaderboardhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	leaderboardservice "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/application"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newRouter(svc *FakeService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewLeaderboardHandlers(svc, logger, noop.NewTracerProvider().Tracer("test"))

	r := chi.NewRouter()
	r.Get("/api/leaderboard", h.HandleGlobal)
	r.Get("/api/leaderboard/chart.png", h.HandleChart)
	r.Get("/api/leaderboard/category/{id}", h.HandleCategory)
	r.Get("/api/leaderboard/challenge/{id}", h.HandleChallenge)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleGlobal(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantPage httpx.PageRequest
	}{
		{"defaults", "/api/leaderboard", httpx.PageRequest{Page: 1, PerPage: leaderboardservice.DefaultPerPage}},
		{"explicit page", "/api/leaderboard?page=2&per_page=10", httpx.PageRequest{Page: 2, PerPage: 10}},
		{"capped", "/api/leaderboard?per_page=1000", httpx.PageRequest{Page: 1, PerPage: httpx.MaxPerPage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got httpx.PageRequest
			svc := &FakeService{GlobalFunc: func(ctx context.Context, page httpx.PageRequest) (*leaderboardservice.GlobalBoard, error) {
				got = page
				return &leaderboardservice.GlobalBoard{
					Leaderboard: []leaderboardservice.GlobalEntry{{Rank: 1, UserID: 4, Username: "carol", Score: 900}},
					Total:       1,
					Pages:       1,
					CurrentPage: page.Page,
				}, nil
			}}

			rec := get(t, newRouter(svc), tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantPage, got)

			var body leaderboardservice.GlobalBoard
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Len(t, body.Leaderboard, 1)
			assert.Equal(t, "carol", body.Leaderboard[0].Username)
			assert.Equal(t, tt.wantPage.Page, body.CurrentPage)
		})
	}
}

func TestHandleGlobalStoreFailure(t *testing.T) {
	svc := &FakeService{GlobalFunc: func(ctx context.Context, page httpx.PageRequest) (*leaderboardservice.GlobalBoard, error) {
		return nil, errors.New("connection reset")
	}}

	rec := get(t, newRouter(svc), "/api/leaderboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHandleCategory(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		fn         func(ctx context.Context, categoryID int64) (*leaderboardservice.CategoryBoard, error)
		wantStatus int
	}{
		{
			name:       "board",
			path:       "/api/leaderboard/category/3",
			wantStatus: http.StatusOK,
		},
		{
			name: "unknown category",
			path: "/api/leaderboard/category/9",
			fn: func(ctx context.Context, categoryID int64) (*leaderboardservice.CategoryBoard, error) {
				return nil, leaderboardservice.ErrCategoryNotFound
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "bad id",
			path:       "/api/leaderboard/category/web",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newRouter(&FakeService{ByCategoryFunc: tt.fn}), tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var body leaderboardservice.CategoryBoard
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, int64(3), body.CategoryID)
			}
		})
	}
}

func TestHandleChallenge(t *testing.T) {
	svc := &FakeService{ByChallengeFunc: func(ctx context.Context, caller authdomain.Identity, challengeID int64) (*leaderboardservice.ChallengeBoard, error) {
		if challengeID != 5 {
			return nil, leaderboardservice.ErrChallengeNotFound
		}
		return &leaderboardservice.ChallengeBoard{
			ChallengeID: 5,
			Leaderboard: []leaderboardservice.SolveEntry{{Rank: 1, UserID: 2, Username: "bob"}},
		}, nil
	}}
	router := newRouter(svc)

	rec := get(t, router, "/api/leaderboard/challenge/5")
	require.Equal(t, http.StatusOK, rec.Code)
	var body leaderboardservice.ChallengeBoard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Leaderboard, 1)
	assert.Equal(t, "bob", body.Leaderboard[0].Username)

	rec = get(t, router, "/api/leaderboard/challenge/6")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleChallengeHiddenForPlayers(t *testing.T) {
	const hiddenID = 8
	svc := &FakeService{ByChallengeFunc: func(ctx context.Context, caller authdomain.Identity, challengeID int64) (*leaderboardservice.ChallengeBoard, error) {
		if challengeID == hiddenID && !caller.IsAdmin {
			return nil, leaderboardservice.ErrChallengeNotFound
		}
		return &leaderboardservice.ChallengeBoard{ChallengeID: challengeID}, nil
	}}
	router := newRouter(svc)

	tests := []struct {
		name   string
		caller authdomain.Identity
		path   string
		want   int
	}{
		{"player asking for hidden id", authdomain.Identity{UserID: 2, Username: "bob"}, "/api/leaderboard/challenge/8", http.StatusNotFound},
		{"admin asking for hidden id", authdomain.Identity{UserID: 1, Username: "admin", IsAdmin: true}, "/api/leaderboard/challenge/8", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req = req.WithContext(authdomain.WithIdentity(req.Context(), tt.caller))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleChart(t *testing.T) {
	var tops []int
	svc := &FakeService{TopChartFunc: func(ctx context.Context, top int) ([]byte, error) {
		tops = append(tops, top)
		return []byte("\x89PNG"), nil
	}}
	router := newRouter(svc)

	rec := get(t, router, "/api/leaderboard/chart.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())

	get(t, router, "/api/leaderboard/chart.png?top=3")
	get(t, router, "/api/leaderboard/chart.png?top=many")
	assert.Equal(t, []int{leaderboardservice.DefaultChartTop, 3, leaderboardservice.DefaultChartTop}, tops)
}
