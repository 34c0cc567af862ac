package challengemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var defaultCategories = []struct {
	name        string
	description string
}{
	{"Web", "Web application security"},
	{"Pwn", "Binary exploitation"},
	{"Reverse", "Reverse engineering"},
	{"Crypto", "Cryptography"},
	{"Misc", "Miscellaneous"},
	{"Forensics", "Digital forensics"},
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating categories table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS categories (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(50) NOT NULL UNIQUE,
					description TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create categories table: %w", err)
			}

			for _, c := range defaultCategories {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO categories (name, description) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`,
					c.name, c.description,
				); err != nil {
					return fmt.Errorf("failed to seed category %s: %w", c.name, err)
				}
			}

			fmt.Println("Categories table created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping categories table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS categories CASCADE;`); err != nil {
			return fmt.Errorf("failed to drop categories table: %w", err)
		}

		fmt.Println("Categories table dropped successfully!")
		return nil
	})
}
