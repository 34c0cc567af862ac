package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Black-And-White-Club/ctf-platform/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	challengedomain "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/domain"
	challengemigrations "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/infrastructure/repositories/migrations"
	submissionmigrations "github.com/Black-And-White-Club/ctf-platform/app/modules/submission/infrastructure/repositories/migrations"
	usermigrations "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories/migrations"
)

// moduleMigrator pairs a module with its migrator. Order matters: submissions
// reference users and challenges.
type moduleMigrator struct {
	name     string
	migrator *migrate.Migrator
}

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(pgdb, pgdialect.New())
	defer db.Close()

	migrators := []moduleMigrator{
		{name: "user", migrator: migrate.NewMigrator(db, usermigrations.Migrations)},
		{name: "challenge", migrator: migrate.NewMigrator(db, challengemigrations.Migrations)},
		{name: "submission", migrator: migrate.NewMigrator(db, submissionmigrations.Migrations)},
	}

	cliApp := &cli.App{
		Name:  "bun",
		Usage: "ctf-platform database and flag tooling",
		// flag.Parse already consumed -config.
		Commands: []*cli.Command{
			newMultiModuleDBCommand(migrators),
			newRiverCommand(cfg.Postgres.DSN),
			newFlagCommand(cfg.Flags.Prefix),
		},
	}

	if err := cliApp.Run(append([]string{os.Args[0]}, flag.Args()...)); err != nil {
		log.Fatal(err)
	}
}

func findMigrator(migrators []moduleMigrator, name string) (*migrate.Migrator, error) {
	for _, m := range migrators {
		if m.name == name {
			return m.migrator, nil
		}
	}
	return nil, fmt.Errorf("invalid module name: %s", name)
}

func newMultiModuleDBCommand(migrators []moduleMigrator) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					for _, m := range migrators {
						fmt.Printf("Initializing migrations for module: %s\n", m.name)
						if err := m.migrator.Init(c.Context); err != nil {
							return fmt.Errorf("failed to initialize migrations for module %s: %w", m.name, err)
						}
					}
					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					for _, m := range migrators {
						fmt.Printf("Running migrations for module: %s\n", m.name)
						group, err := m.migrator.Migrate(c.Context)
						if err != nil {
							return err
						}
						if group.IsZero() {
							fmt.Printf("No new migrations to run for module: %s\n", m.name)
						} else {
							fmt.Printf("Migrated module: %s to %s\n", m.name, group)
						}
					}
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					// Reverse order so dependent tables go first.
					for i := len(migrators) - 1; i >= 0; i-- {
						m := migrators[i]
						fmt.Printf("Rolling back migrations for module: %s\n", m.name)
						group, err := m.migrator.Rollback(c.Context)
						if err != nil {
							return err
						}
						if group.IsZero() {
							fmt.Printf("No groups to roll back for module: %s\n", m.name)
						} else {
							fmt.Printf("Rolled back module: %s to %s\n", m.name, group)
						}
					}
					return nil
				},
			},
			{
				Name:      "create_go",
				Usage:     "create Go migration",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					moduleName := c.Args().First()
					migrator, err := findMigrator(migrators, moduleName)
					if err != nil {
						return err
					}

					name := strings.Join(c.Args().Tail(), "_")
					mf, err := migrator.CreateGoMigration(c.Context, name)
					if err != nil {
						return err
					}
					fmt.Printf("Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					for _, m := range migrators {
						ms, err := m.migrator.MigrationsWithStatus(c.Context)
						if err != nil {
							return err
						}
						fmt.Printf("Migrations for module: %s\n", m.name)
						fmt.Printf("  %s\n", ms)
						fmt.Printf("  Applied: %s\n", ms.Applied())
						fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
					}
					return nil
				},
			},
		},
	}
}

func newRiverCommand(dsn string) *cli.Command {
	return &cli.Command{
		Name:  "river",
		Usage: "job queue schema",
		Subcommands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "create or upgrade the River tables",
				Action: func(c *cli.Context) error {
					return runRiverMigrations(c.Context, dsn)
				},
			},
		},
	}
}

func runRiverMigrations(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	if len(res.Versions) == 0 {
		fmt.Println("River schema is up to date")
		return nil
	}
	for _, v := range res.Versions {
		fmt.Printf("Applied River migration %d (%s)\n", v.Version, v.Duration)
	}
	return nil
}

func newFlagCommand(defaultPrefix string) *cli.Command {
	return &cli.Command{
		Name:  "flag",
		Usage: "challenge flag helpers",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "print a random flag",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Value: defaultPrefix},
					&cli.IntFlag{Name: "length", Value: challengedomain.DefaultFlagLength},
				},
				Action: func(c *cli.Context) error {
					f, err := challengedomain.GenerateFlag(c.String("prefix"), c.Int("length"))
					if err != nil {
						return err
					}
					fmt.Println(f)
					return nil
				},
			},
			{
				Name:      "validate",
				Usage:     "check a flag has the PREFIX{...} shape",
				ArgsUsage: "<flag>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Value: defaultPrefix},
				},
				Action: func(c *cli.Context) error {
					f := c.Args().First()
					if !challengedomain.ValidateFlagFormat(f, c.String("prefix")) {
						return cli.Exit(fmt.Sprintf("invalid flag format: %q", f), 1)
					}
					fmt.Println("valid")
					return nil
				},
			},
		},
	}
}
