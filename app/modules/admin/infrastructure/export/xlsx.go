// Package adminexport renders an admin data export as a spreadsheet.
package adminexport

import (
	"fmt"
	"io"
	"strings"
	"time"

	adminservice "github.com/Black-And-White-Club/ctf-platform/app/modules/admin/application"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of WriteXLSX output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type sheet struct {
	name   string
	header []any
	rows   [][]any
}

// WriteXLSX writes one sheet per entity to w.
func WriteXLSX(w io.Writer, data *adminservice.Export) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := buildSheets(data)
	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", s.name, err)
		}

		if err := writeRow(f, s.name, 1, s.header); err != nil {
			return err
		}
		for r, row := range s.rows {
			if err := writeRow(f, s.name, r+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheetName string, row int, cells []any) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, axis, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheetName, row, err)
	}
	return nil
}

func buildSheets(data *adminservice.Export) []sheet {
	users := sheet{
		name:   "Users",
		header: []any{"id", "username", "email", "is_admin", "is_active", "score", "created_at", "last_login"},
	}
	for _, u := range data.Users {
		users.rows = append(users.rows, []any{u.ID, u.Username, u.Email, u.IsAdmin, u.IsActive, u.Score, stamp(u.CreatedAt), optionalStamp(u.LastLogin)})
	}

	challenges := sheet{
		name: "Challenges",
		header: []any{"id", "title", "category_id", "difficulty", "points", "base_points", "solved_count",
			"first_blood_user_id", "is_hidden", "flag", "hints", "attachment_filename", "created_at"},
	}
	for _, c := range data.Challenges {
		var firstBlood any
		if c.FirstBloodUserID != nil {
			firstBlood = *c.FirstBloodUserID
		}
		challenges.rows = append(challenges.rows, []any{c.ID, c.Title, c.CategoryID, c.Difficulty, c.Points, c.BasePoints,
			c.SolvedCount, firstBlood, c.IsHidden, c.Flag, strings.Join(c.Hints, "\n"), c.AttachmentFilename, stamp(c.CreatedAt)})
	}

	submissions := sheet{
		name:   "Submissions",
		header: []any{"id", "user_id", "challenge_id", "flag_submitted", "is_correct", "submitted_at"},
	}
	for _, s := range data.Submissions {
		submissions.rows = append(submissions.rows, []any{s.ID, s.UserID, s.ChallengeID, s.FlagSubmitted, s.IsCorrect, stamp(s.SubmittedAt)})
	}

	categories := sheet{
		name:   "Categories",
		header: []any{"id", "name", "description", "created_at"},
	}
	for _, c := range data.Categories {
		categories.rows = append(categories.rows, []any{c.ID, c.Name, c.Description, stamp(c.CreatedAt)})
	}

	return []sheet{users, challenges, submissions, categories}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optionalStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return stamp(*t)
}
