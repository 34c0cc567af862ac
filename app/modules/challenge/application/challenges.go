package challengeservice

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	challengedomain "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/domain"
	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/results"
	"github.com/uptrace/bun"
)

// ErrChallengeNotFound is returned for missing challenges and for hidden ones
// looked up by non-admins.
var ErrChallengeNotFound = apperr.NotFound("Challenge not found!")

var (
	errPointsNotNumeric  = apperr.Validation("Points and category ID must be numbers!")
	errCategoryMissing   = apperr.Validation("Category does not exist!")
	errInvalidDifficulty = apperr.Validation("Invalid difficulty!")
	errInvalidPoints     = apperr.Validation("Points must be between 1 and %d!", maxPoints)
)

// Column limits of the challenges table.
const (
	maxTitleLength              = 200
	maxAttachmentFilenameLength = 255
	maxPoints                   = math.MaxInt32
)

// CreateChallengeRequest is the admin authoring payload. Points and
// category_id accept numbers or numeric strings.
type CreateChallengeRequest struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Flag               string          `json:"flag"`
	Points             json.Number     `json:"points"`
	Difficulty         string          `json:"difficulty"`
	CategoryID         json.Number     `json:"category_id"`
	IsHidden           bool            `json:"is_hidden"`
	Hints              json.RawMessage `json:"hints"`
	AttachmentFilename string          `json:"attachment_filename"`
}

// UpdateChallengeRequest is a partial admin edit. Absent fields are untouched.
type UpdateChallengeRequest struct {
	Title              *string         `json:"title"`
	Description        *string         `json:"description"`
	Flag               *string         `json:"flag"`
	Points             *json.Number    `json:"points"`
	Difficulty         *string         `json:"difficulty"`
	CategoryID         *json.Number    `json:"category_id"`
	IsHidden           *bool           `json:"is_hidden"`
	Hints              json.RawMessage `json:"hints"`
	AttachmentFilename *string         `json:"attachment_filename"`
}

// ListChallenges returns the visible catalogue annotated with the caller's progress.
func (s *ChallengeService) ListChallenges(ctx context.Context, caller authdomain.Identity) ([]ChallengeView, error) {
	res, err := withTelemetry(s, ctx, "ListChallenges", caller.UserID, func(ctx context.Context) (results.OperationResult[[]ChallengeView, error], error) {
		rows, err := s.repo.List(ctx, nil, caller.IsAdmin)
		if err != nil {
			return results.OperationResult[[]ChallengeView, error]{}, err
		}
		activity, err := s.loadActivity(ctx, caller.UserID)
		if err != nil {
			return results.OperationResult[[]ChallengeView, error]{}, err
		}

		views := make([]ChallengeView, 0, len(rows))
		for i := range rows {
			solved, attempted := activity[rows[i].ID]
			views = append(views, newView(&rows[i], caller.IsAdmin, attempted, solved))
		}
		return results.SuccessResult[[]ChallengeView, error](views), nil
	})
	out, err := unwrap(res, err)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// GetChallenge returns one challenge. Hidden challenges are reported missing
// to non-admins.
func (s *ChallengeService) GetChallenge(ctx context.Context, caller authdomain.Identity, id int64) (*ChallengeView, error) {
	return unwrap(withTelemetry(s, ctx, "GetChallenge", id, func(ctx context.Context) (results.OperationResult[ChallengeView, error], error) {
		c, err := s.visibleChallenge(ctx, caller, id)
		if err != nil {
			if apperr.IsDomain(err) {
				return results.FailureResult[ChallengeView, error](err), nil
			}
			return results.OperationResult[ChallengeView, error]{}, err
		}
		activity, err := s.loadActivity(ctx, caller.UserID)
		if err != nil {
			return results.OperationResult[ChallengeView, error]{}, err
		}

		solved, attempted := activity[c.ID]
		view := newView(c, caller.IsAdmin, attempted, solved)
		updated := c.UpdatedAt
		view.UpdatedAt = &updated
		return results.SuccessResult[ChallengeView, error](view), nil
	}))
}

// CreateChallenge validates and stores a new challenge authored by caller.
func (s *ChallengeService) CreateChallenge(ctx context.Context, caller authdomain.Identity, req CreateChallengeRequest) (*CreatedChallenge, error) {
	return unwrap(withTelemetry(s, ctx, "CreateChallenge", caller.UserID, func(ctx context.Context) (results.OperationResult[CreatedChallenge, error], error) {
		challenge, verr := buildChallenge(req)
		if verr != nil {
			return results.FailureResult[CreatedChallenge, error](verr), nil
		}
		creator := caller.UserID
		challenge.CreatorID = &creator
		now := s.now()
		challenge.CreatedAt = now
		challenge.UpdatedAt = now

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[CreatedChallenge, error], error) {
			if _, err := s.repo.GetCategory(ctx, db, challenge.CategoryID); err != nil {
				if errors.Is(err, challengedb.ErrNotFound) {
					return results.FailureResult[CreatedChallenge, error](errCategoryMissing), nil
				}
				return results.OperationResult[CreatedChallenge, error]{}, err
			}
			if err := s.repo.Create(ctx, db, challenge); err != nil {
				if errors.Is(err, challengedb.ErrNotFound) {
					return results.FailureResult[CreatedChallenge, error](errCategoryMissing), nil
				}
				return results.OperationResult[CreatedChallenge, error]{}, err
			}
			return results.SuccessResult[CreatedChallenge, error](CreatedChallenge{
				ChallengeID: challenge.ID,
				Challenge: ChallengeSummary{
					ID:         challenge.ID,
					Title:      challenge.Title,
					Points:     challenge.Points,
					Difficulty: challenge.Difficulty,
				},
			}), nil
		})
	}))
}

// UpdateChallenge applies an admin edit. The ledger projections are not editable.
func (s *ChallengeService) UpdateChallenge(ctx context.Context, id int64, req UpdateChallengeRequest) error {
	_, err := unwrap(withTelemetry(s, ctx, "UpdateChallenge", id, func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		fields, verr := buildUpdate(req)
		if verr != nil {
			return results.FailureResult[struct{}, error](verr), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, error], error) {
			if fields.CategoryID != nil {
				if _, err := s.repo.GetCategory(ctx, db, *fields.CategoryID); err != nil {
					if errors.Is(err, challengedb.ErrNotFound) {
						return results.FailureResult[struct{}, error](errCategoryMissing), nil
					}
					return results.OperationResult[struct{}, error]{}, err
				}
			}
			if err := s.repo.Update(ctx, db, id, fields, s.now()); err != nil {
				if errors.Is(err, challengedb.ErrNoRowsAffected) || errors.Is(err, challengedb.ErrNotFound) {
					return results.FailureResult[struct{}, error](ErrChallengeNotFound), nil
				}
				return results.OperationResult[struct{}, error]{}, err
			}
			return results.SuccessResult[struct{}, error](struct{}{}), nil
		})
	}))
	return err
}

// DeleteChallenge removes a challenge and its submissions. Points already
// credited to users stay where they are.
func (s *ChallengeService) DeleteChallenge(ctx context.Context, id int64) error {
	_, err := unwrap(withTelemetry(s, ctx, "DeleteChallenge", id, func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		if err := s.repo.Delete(ctx, nil, id); err != nil {
			if errors.Is(err, challengedb.ErrNoRowsAffected) {
				return results.FailureResult[struct{}, error](ErrChallengeNotFound), nil
			}
			return results.OperationResult[struct{}, error]{}, err
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}))
	return err
}

func (s *ChallengeService) visibleChallenge(ctx context.Context, caller authdomain.Identity, id int64) (*challengedb.Challenge, error) {
	c, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, challengedb.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	if c.IsHidden && !caller.IsAdmin {
		return nil, ErrChallengeNotFound
	}
	return c, nil
}

func (s *ChallengeService) loadActivity(ctx context.Context, userID int64) (map[int64]bool, error) {
	if s.activity == nil || userID == 0 {
		return map[int64]bool{}, nil
	}
	return s.activity.ChallengeActivity(ctx, nil, userID)
}

func buildChallenge(req CreateChallengeRequest) (*challengedb.Challenge, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	flag := strings.TrimSpace(req.Flag)
	difficulty := strings.TrimSpace(req.Difficulty)

	var missing []string
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"title", title == ""},
		{"description", description == ""},
		{"flag", flag == ""},
		{"points", isZeroNumber(req.Points)},
		{"difficulty", difficulty == ""},
		{"category_id", isZeroNumber(req.CategoryID)},
	} {
		if f.empty {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("Missing required fields: %s", strings.Join(missing, ", "))
	}

	points, err := parsePoints(req.Points)
	if err != nil {
		return nil, err
	}
	categoryID, err := parseInt(req.CategoryID)
	if err != nil {
		return nil, errPointsNotNumeric
	}
	d, ok := challengedomain.ParseDifficulty(difficulty)
	if !ok {
		return nil, errInvalidDifficulty
	}
	attachment := strings.TrimSpace(req.AttachmentFilename)
	if err := checkLengths(&title, &flag, &attachment); err != nil {
		return nil, err
	}

	return &challengedb.Challenge{
		Title:              title,
		Description:        description,
		Flag:               flag,
		Points:             points,
		BasePoints:         points,
		Difficulty:         d.String(),
		CategoryID:         categoryID,
		IsHidden:           req.IsHidden,
		Hints:              parseHints(req.Hints),
		AttachmentFilename: attachment,
	}, nil
}

func buildUpdate(req UpdateChallengeRequest) (*challengedb.ChallengeUpdateFields, error) {
	fields := &challengedb.ChallengeUpdateFields{
		IsHidden: req.IsHidden,
	}

	trimmed := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	fields.Title = trimmed(req.Title)
	fields.Description = trimmed(req.Description)
	fields.Flag = trimmed(req.Flag)
	fields.AttachmentFilename = trimmed(req.AttachmentFilename)

	for _, f := range []struct {
		name string
		v    *string
	}{{"Title", fields.Title}, {"Description", fields.Description}, {"Flag", fields.Flag}} {
		if f.v != nil && *f.v == "" {
			return nil, apperr.Validation("%s cannot be empty!", f.name)
		}
	}

	if err := checkLengths(fields.Title, fields.Flag, fields.AttachmentFilename); err != nil {
		return nil, err
	}

	if req.Points != nil {
		points, err := parsePoints(*req.Points)
		if err != nil {
			return nil, err
		}
		fields.BasePoints = &points
	}
	if req.CategoryID != nil {
		categoryID, err := parseInt(*req.CategoryID)
		if err != nil {
			return nil, errPointsNotNumeric
		}
		fields.CategoryID = &categoryID
	}
	if req.Difficulty != nil {
		d, ok := challengedomain.ParseDifficulty(*req.Difficulty)
		if !ok {
			return nil, errInvalidDifficulty
		}
		v := d.String()
		fields.Difficulty = &v
	}
	if req.Hints != nil {
		hints := parseHints(req.Hints)
		if hints == nil {
			hints = []string{}
		}
		fields.Hints = &hints
	}
	return fields, nil
}

// parseHints accepts a JSON list of strings. Anything else means no hints.
func parseHints(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var hints []string
	if err := json.Unmarshal(raw, &hints); err != nil || len(hints) == 0 {
		return nil
	}
	return hints
}

func isZeroNumber(n json.Number) bool {
	s := strings.TrimSpace(n.String())
	return s == "" || s == "0"
}

// parsePoints reads a point value that fits the INTEGER column.
func parsePoints(n json.Number) (int, error) {
	points, err := parseInt(n)
	if err != nil {
		return 0, errPointsNotNumeric
	}
	if points < 1 || points > maxPoints {
		return 0, errInvalidPoints
	}
	return int(points), nil
}

// checkLengths enforces the column widths. Nil fields are skipped.
func checkLengths(title, flag, attachment *string) error {
	if title != nil && utf8.RuneCountInString(*title) > maxTitleLength {
		return apperr.Validation("Title must be at most %d characters!", maxTitleLength)
	}
	if flag != nil && utf8.RuneCountInString(*flag) > challengedomain.MaxFlagLength {
		return apperr.Validation("Flag must be at most %d characters!", challengedomain.MaxFlagLength)
	}
	if attachment != nil && utf8.RuneCountInString(*attachment) > maxAttachmentFilenameLength {
		return apperr.Validation("Attachment filename must be at most %d characters!", maxAttachmentFilenameLength)
	}
	return nil
}

func parseInt(n json.Number) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(n.String()), 10, 64)
}
