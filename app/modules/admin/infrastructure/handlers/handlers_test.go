package adminhandlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	adminservice "github.com/Black-And-White-Club/ctf-platform/app/modules/admin/application"
	adminexport "github.com/Black-And-White-Club/ctf-platform/app/modules/admin/infrastructure/export"
	scoreservice "github.com/Black-And-White-Club/ctf-platform/app/modules/score/application"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/trace/noop"
)

func newRouter(svc *FakeService, scores *FakeScores) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAdminHandlers(svc, scores, logger, noop.NewTracerProvider().Tracer("test"))

	r := chi.NewRouter()
	r.Get("/api/admin/stats", h.HandleStats)
	r.Post("/api/admin/backup", h.HandleBackup)
	r.Post("/api/admin/update-scores", h.HandleUpdateScores)
	r.Post("/api/admin/recalculate-users", h.HandleRecalculateUsers)
	r.Get("/api/admin/export-data", h.HandleExport)
	return r
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleStats(t *testing.T) {
	svc := &FakeService{StatsFunc: func(ctx context.Context) (*adminservice.Stats, error) {
		return &adminservice.Stats{TotalUsers: 12, TotalChallenges: 5}, nil
	}}

	rec := serve(newRouter(svc, &FakeScores{}), http.MethodGet, "/api/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	stats, ok := decodeBody(t, rec)["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(12), stats["total_users"])
	assert.Equal(t, float64(5), stats["total_challenges"])
}

func TestHandleBackup(t *testing.T) {
	svc := &FakeService{BackupFunc: func(ctx context.Context) (*adminservice.BackupSnapshot, error) {
		return &adminservice.BackupSnapshot{UsersCount: 4}, nil
	}}

	rec := serve(newRouter(svc, &FakeScores{}), http.MethodPost, "/api/admin/backup")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Backup created successfully!", body["message"])
	backup := body["backup"].(map[string]any)
	assert.Equal(t, float64(4), backup["users_count"])
}

func TestHandleUpdateScores(t *testing.T) {
	tests := []struct {
		name       string
		fn         func(ctx context.Context) (*scoreservice.RecalcSummary, error)
		wantStatus int
	}{
		{
			name: "recalculated",
			fn: func(ctx context.Context) (*scoreservice.RecalcSummary, error) {
				return &scoreservice.RecalcSummary{Updated: 3}, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "already running",
			fn: func(ctx context.Context) (*scoreservice.RecalcSummary, error) {
				return nil, scoreservice.ErrRecalcInProgress
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "store failure",
			fn: func(ctx context.Context) (*scoreservice.RecalcSummary, error) {
				return nil, errors.New("pq: deadlock")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newRouter(&FakeService{}, &FakeScores{UpdateAllFunc: tt.fn}), http.MethodPost, "/api/admin/update-scores")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "Scores updated successfully!", decodeBody(t, rec)["message"])
			}
		})
	}
}

func TestHandleRecalculateUsers(t *testing.T) {
	scores := &FakeScores{RecalculateUsersFn: func(ctx context.Context) (*scoreservice.UserRecalcSummary, error) {
		return &scoreservice.UserRecalcSummary{Users: 2, TotalPoints: 637}, nil
	}}

	rec := serve(newRouter(&FakeService{}, scores), http.MethodPost, "/api/admin/recalculate-users")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody(t, rec)["summary"].(map[string]any)
	assert.Equal(t, float64(637), summary["total_points"])
}

func TestHandleExport(t *testing.T) {
	exported := &adminservice.Export{
		ExportTime: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		Users:      []adminservice.ExportUser{{ID: 1, Username: "admin"}},
	}
	svc := &FakeService{ExportFunc: func(ctx context.Context) (*adminservice.Export, error) {
		return exported, nil
	}}
	router := newRouter(svc, &FakeScores{})

	t.Run("json by default", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/api/admin/export-data")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		users := decodeBody(t, rec)["users"].([]any)
		assert.Len(t, users, 1)
	})

	t.Run("xlsx", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/api/admin/export-data?format=xlsx")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, adminexport.ContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "ctf-export-20260315-120000.xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		assert.Contains(t, f.GetSheetList(), "Users")
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/api/admin/export-data?format=csv")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
