package main

import (
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/repository"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the database and pull model artifacts",
		Commands: []*cli.Command{
			{
				Name:   "drugs",
				Usage:  "Seed the drug catalog",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: seedDrugs,
			},
			{
				Name:  "usage",
				Usage: "Seed synthetic daily usage history",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:  "days",
						Usage: "How many days of history to generate",
						Value: 180,
					},
					&cli.Int64Flag{
						Name:  "rand-seed",
						Usage: "Seed for the demand generator, for reproducible runs",
						Value: 42,
					},
				},
				Action: seedUsage,
			},
			{
				Name:  "all",
				Usage: "Seed the catalog and synthetic usage history",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{Name: "days", Value: 180},
					&cli.Int64Flag{Name: "rand-seed", Value: 42},
				},
				Action: func(c *cli.Context) error {
					if err := seedDrugs(c); err != nil {
						return err
					}
					return seedUsage(c)
				},
			},
			{
				Name:   "pull-models",
				Usage:  "Download trained model artifacts from the S3 bucket",
				Flags:  pullModelsFlags(),
				Action: pullModels,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func seedDrugs(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewIngestRepository(db)
	ctx := c.Context

	log.Println("Seeding drug catalog...")
	for _, seed := range defaultCatalog {
		id, err := repo.UpsertDrug(ctx, &domain.Drug{
			Name:            seed.Name,
			Unit:            seed.Unit,
			ReorderLevel:    seed.ReorderLevel,
			ReorderQuantity: seed.ReorderQuantity,
		})
		if err != nil {
			return fmt.Errorf("failed to seed drug %q: %w", seed.Name, err)
		}
		log.Printf("Seeded drug %d: %s\n", id, seed.Name)
	}

	log.Printf("Seeded %d drugs\n", len(defaultCatalog))
	return nil
}

func seedUsage(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewIngestRepository(db)
	ctx := c.Context
	days := c.Int("days")
	rng := rand.New(rand.NewSource(c.Int64("rand-seed")))

	// History ends yesterday so forecasts starting tomorrow have a gap of
	// exactly one day, matching what a live ingest produces.
	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -days)

	log.Printf("Seeding %d days of usage history...\n", days)
	total := 0
	for _, seed := range defaultCatalog {
		drugID, err := repo.GetDrugIDByName(ctx, seed.Name)
		if err != nil {
			return fmt.Errorf("catalog missing %q, run the drugs command first: %w", seed.Name, err)
		}

		records := generateUsage(seed, drugID, start, days, rng)
		if err := repo.InsertUsageRecords(ctx, records); err != nil {
			return fmt.Errorf("failed to seed usage for %q: %w", seed.Name, err)
		}
		total += len(records)
	}

	log.Printf("Seeded %d usage records\n", total)
	return nil
}
