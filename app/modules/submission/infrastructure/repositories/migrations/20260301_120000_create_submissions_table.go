package submissionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating submissions table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS submissions (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					challenge_id BIGINT NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
					flag_submitted VARCHAR(1024) NOT NULL,
					is_correct BOOLEAN NOT NULL DEFAULT FALSE,
					submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create submissions table: %w", err)
			}

			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions (submitted_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions (user_id, challenge_id)`,
				`CREATE INDEX IF NOT EXISTS idx_submissions_challenge_correct
					ON submissions (challenge_id, submitted_at, id) WHERE is_correct = TRUE`,
			}
			for _, stmt := range indexes {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to create submissions index: %w", err)
				}
			}

			fmt.Println("Submissions table created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping submissions table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS submissions CASCADE;`); err != nil {
			return fmt.Errorf("failed to drop submissions table: %w", err)
		}

		fmt.Println("Submissions table dropped successfully!")
		return nil
	})
}
