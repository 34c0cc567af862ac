package timeparse

import (
	"testing"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Since(t *testing.T) {
	p := NewParser()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	got, err := p.Since("", now)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = p.Since("2026-03-01T12:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), got)

	got, err = p.Since("2026-03-09", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), got)

	got, err = p.Since("yesterday", now)
	require.NoError(t, err)
	assert.True(t, got.Before(now))
	assert.True(t, got.After(now.Add(-48*time.Hour)))

	_, err = p.Since("2027-01-01T00:00:00Z", now)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = p.Since("zzzz qqqq", now)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
