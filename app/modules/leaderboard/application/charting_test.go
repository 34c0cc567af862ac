package leaderboardservice

import (
	"bytes"
	"context"
	"testing"

	leaderboarddb "github.com/Black-And-White-Club/ctf-platform/app/modules/leaderboard/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestGenerateTopChart(t *testing.T) {
	tests := []struct {
		name    string
		entries []GlobalEntry
	}{
		{name: "players", entries: []GlobalEntry{{Username: "carol", Score: 900}, {Username: "bob", Score: 450}}},
		{name: "single player", entries: []GlobalEntry{{Username: "carol", Score: 150}}},
		{name: "no scores renders placeholder", entries: []GlobalEntry{{Username: "bob"}}},
		{name: "empty board renders placeholder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			png, err := GenerateTopChart(tt.entries, DefaultPalette)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(png, pngMagic))
		})
	}
}

func TestTopChartClampsSize(t *testing.T) {
	repo := leaderboarddb.NewFakeRepository()
	var limits []int
	repo.GlobalFn = func(ctx context.Context, db bun.IDB, offset, limit int) ([]leaderboarddb.GlobalRow, int, error) {
		limits = append(limits, limit)
		return nil, 0, nil
	}
	svc := newTestService(repo, nil)

	for _, top := range []int{0, 5, 500} {
		_, err := svc.TopChart(context.Background(), top)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{DefaultChartTop, 5, MaxChartTop}, limits)
}
