package challengedb

import (
	"time"

	"github.com/uptrace/bun"
)

// Category groups challenges (Web, Pwn, Crypto, ...).
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull,unique" json:"name"`
	Description string    `bun:"description,nullzero" json:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Challenge is one task worth points.
//
// Points is the current value credited at solve time. BasePoints is the value
// set by an admin and is the input to dynamic recomputation. SolvedCount and
// FirstBloodUserID are ledger projections and only change under the row lock.
type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:c"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	Title              string    `bun:"title,notnull"`
	Description        string    `bun:"description,notnull"`
	Flag               string    `bun:"flag,notnull"`
	Points             int       `bun:"points,notnull,default:100"`
	BasePoints         int       `bun:"base_points,notnull,default:100"`
	Difficulty         string    `bun:"difficulty,notnull,default:'medium'"`
	CategoryID         int64     `bun:"category_id,notnull"`
	CreatorID          *int64    `bun:"creator_id"`
	SolvedCount        int       `bun:"solved_count,notnull,default:0"`
	FirstBloodUserID   *int64    `bun:"first_blood_user_id"`
	IsHidden           bool      `bun:"is_hidden,notnull,default:false"`
	Hints              []string  `bun:"hints,type:jsonb,nullzero"`
	AttachmentFilename string    `bun:"attachment_filename,nullzero"`
	AttachmentURL      string    `bun:"attachment_url,nullzero"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Category *Category `bun:"rel:belongs-to,join:category_id=id"`
}

// ChallengeUpdateFields carries a partial admin edit. Nil fields are left untouched.
type ChallengeUpdateFields struct {
	Title              *string
	Description        *string
	Flag               *string
	BasePoints         *int
	Difficulty         *string
	CategoryID         *int64
	IsHidden           *bool
	Hints              *[]string
	AttachmentFilename *string
}

// DifficultyCount is one row of the challenges-by-difficulty report.
type DifficultyCount struct {
	Difficulty string `bun:"difficulty" json:"difficulty"`
	Count      int    `bun:"count" json:"count"`
}
