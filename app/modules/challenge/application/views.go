package challengeservice

import (
	"time"

	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
)

const defaultCategoryName = "General"

// ChallengeView is a challenge as a player or admin sees it. The flag is never
// part of it. Hints is nil unless the caller may read them.
type ChallengeView struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	CategoryID    int64      `json:"category_id"`
	Difficulty    string     `json:"difficulty"`
	Points        int        `json:"points"`
	SolvedCount   int        `json:"solved_count"`
	IsSolved      bool       `json:"is_solved"`
	IsHidden      bool       `json:"is_hidden"`
	HasAttachment bool       `json:"has_attachment"`
	Hints         *[]string  `json:"hints,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// newView projects a row. attempted and solved describe the caller's history
// on this challenge; admins always see hints.
func newView(c *challengedb.Challenge, isAdmin, attempted, solved bool) ChallengeView {
	view := ChallengeView{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Category:      defaultCategoryName,
		CategoryID:    c.CategoryID,
		Difficulty:    c.Difficulty,
		Points:        c.Points,
		SolvedCount:   c.SolvedCount,
		IsSolved:      solved,
		IsHidden:      c.IsHidden,
		HasAttachment: c.AttachmentFilename != "",
		CreatedAt:     c.CreatedAt,
	}
	if c.Category != nil && c.Category.Name != "" {
		view.Category = c.Category.Name
	}
	if isAdmin || attempted {
		hints := c.Hints
		if hints == nil {
			hints = []string{}
		}
		view.Hints = &hints
	}
	return view
}

// CreatedChallenge is the response to a successful create.
type CreatedChallenge struct {
	ChallengeID int64            `json:"challenge_id"`
	Challenge   ChallengeSummary `json:"challenge"`
}

// ChallengeSummary is the short form returned after authoring.
type ChallengeSummary struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Points     int    `json:"points"`
	Difficulty string `json:"difficulty"`
}

// AttachmentFile is a resolved download.
type AttachmentFile struct {
	Path     string
	Filename string
}

// FlagCheck is the result of the admin flag format check.
type FlagCheck struct {
	Flag  string `json:"flag"`
	Valid bool   `json:"valid"`
	Hash  string `json:"hash"`
}
