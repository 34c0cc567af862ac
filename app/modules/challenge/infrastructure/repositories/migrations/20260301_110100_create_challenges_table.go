package challengemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating challenges table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS challenges (
					id BIGSERIAL PRIMARY KEY,
					title VARCHAR(200) NOT NULL,
					description TEXT NOT NULL,
					flag VARCHAR(256) NOT NULL,
					points INTEGER NOT NULL DEFAULT 100,
					base_points INTEGER NOT NULL DEFAULT 100,
					difficulty VARCHAR(20) NOT NULL DEFAULT 'medium'
						CHECK (difficulty IN ('easy', 'medium', 'hard', 'expert')),
					category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
					creator_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
					solved_count INTEGER NOT NULL DEFAULT 0 CHECK (solved_count >= 0),
					first_blood_user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
					is_hidden BOOLEAN NOT NULL DEFAULT FALSE,
					hints JSONB,
					attachment_filename VARCHAR(255),
					attachment_url VARCHAR(500),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create challenges table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_challenges_category ON challenges (category_id);
			`); err != nil {
				return fmt.Errorf("failed to create challenges category index: %w", err)
			}

			fmt.Println("Challenges table created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping challenges table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS challenges CASCADE;`); err != nil {
			return fmt.Errorf("failed to drop challenges table: %w", err)
		}

		fmt.Println("Challenges table dropped successfully!")
		return nil
	})
}
