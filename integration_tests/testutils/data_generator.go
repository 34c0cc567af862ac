package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/uptrace/bun"

	challengedb "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
)

// TestDataGenerator builds and inserts realistic fixtures from a seeded faker,
// so a failing run can be reproduced.
type TestDataGenerator struct {
	faker      *gofakeit.Faker
	users      userdb.Repository
	challenges challengedb.Repository
	seq        int
}

// NewTestDataGenerator creates a generator over db.
func NewTestDataGenerator(db bun.IDB, seed uint64) *TestDataGenerator {
	return &TestDataGenerator{
		faker:      gofakeit.New(seed),
		users:      userdb.NewRepository(db),
		challenges: challengedb.NewRepository(db),
	}
}

func (g *TestDataGenerator) next() int {
	g.seq++
	return g.seq
}

// CreateUsers inserts n active, non-admin users.
func (g *TestDataGenerator) CreateUsers(t *testing.T, ctx context.Context, n int) []userdb.User {
	t.Helper()
	users := make([]userdb.User, 0, n)
	for range n {
		i := g.next()
		u := userdb.User{
			Username:     fmt.Sprintf("%s_%d", g.faker.Username(), i),
			Email:        fmt.Sprintf("%d_%s", i, g.faker.Email()),
			PasswordHash: g.faker.Password(true, true, true, false, false, 32),
			IsActive:     true,
		}
		if err := g.users.Create(ctx, nil, &u); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		users = append(users, u)
	}
	return users
}

// CreateCategory inserts a category with a unique name.
func (g *TestDataGenerator) CreateCategory(t *testing.T, ctx context.Context) challengedb.Category {
	t.Helper()
	c := challengedb.Category{
		Name:        fmt.Sprintf("%s %d", g.faker.HackerNoun(), g.next()),
		Description: g.faker.Sentence(6),
	}
	if err := g.challenges.CreateCategory(ctx, nil, &c); err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	return c
}

// ChallengeOptions overrides generated challenge fields. Zero values keep
// the generated defaults.
type ChallengeOptions struct {
	Flag       string
	Points     int
	Difficulty string
	Hidden     bool
}

// CreateChallenge inserts a visible challenge in categoryID.
func (g *TestDataGenerator) CreateChallenge(t *testing.T, ctx context.Context, categoryID int64, opts ChallengeOptions) challengedb.Challenge {
	t.Helper()
	if opts.Flag == "" {
		opts.Flag = fmt.Sprintf("CTF{%s}", g.faker.LetterN(16))
	}
	if opts.Points == 0 {
		opts.Points = 100
	}
	if opts.Difficulty == "" {
		opts.Difficulty = g.faker.RandomString([]string{"easy", "medium", "hard"})
	}
	c := challengedb.Challenge{
		Title:       g.faker.HackerPhrase(),
		Description: g.faker.Paragraph(1, 2, 8, "\n"),
		Flag:        opts.Flag,
		Points:      opts.Points,
		BasePoints:  opts.Points,
		Difficulty:  opts.Difficulty,
		CategoryID:  categoryID,
		IsHidden:    opts.Hidden,
	}
	if err := g.challenges.Create(ctx, nil, &c); err != nil {
		t.Fatalf("failed to create challenge: %v", err)
	}
	return c
}
