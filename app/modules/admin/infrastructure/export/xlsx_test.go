package adminexport

import (
	"bytes"
	"testing"
	"time"

	adminservice "github.com/Black-And-White-Club/ctf-platform/app/modules/admin/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	data := &adminservice.Export{
		Users: []adminservice.ExportUser{
			{ID: 1, Username: "admin", IsAdmin: true, CreatedAt: created},
			{ID: 2, Username: "alice", Score: 450, CreatedAt: created},
		},
		Challenges: []adminservice.ExportChallenge{
			{ID: 3, Title: "warmup", Flag: "CTF{w}", Hints: []string{"look", "closer"}},
		},
		Categories: []adminservice.ExportCategory{{ID: 1, Name: "Web"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, data))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Users", "Challenges", "Submissions", "Categories"}, f.GetSheetList())

	rows, err := f.GetRows("Users")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "username", rows[0][1])
	assert.Equal(t, "alice", rows[2][1])
	assert.Equal(t, "450", rows[2][5])
	assert.Equal(t, "2026-03-01T09:30:00Z", rows[1][6])

	rows, err = f.GetRows("Challenges")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CTF{w}", rows[1][9])
	assert.Equal(t, "look\ncloser", rows[1][10])

	rows, err = f.GetRows("Submissions")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
