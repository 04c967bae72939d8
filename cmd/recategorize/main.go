// Command recategorize re-applies the category mapping to questions that are
// already stored, grouped by source file. Run it after editing categories.yaml.
// Usage: go run ./cmd/recategorize [-categories categories.yaml] [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"quizbank/internal/category"
	"quizbank/internal/config"
	"quizbank/internal/domain"
	"quizbank/internal/port"
	"quizbank/internal/repository/postgres"
)

const pageSize = 100

// change moves the questions of one source file between categories.
type change struct {
	sourceFile string
	from       string
	to         string
	count      int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	categoriesFile := flag.String("categories", cfg.Ingest.CategoriesFile, "YAML file mapping file names to categories")
	dryRun := flag.Bool("dry-run", false, "only print the planned changes")
	flag.Parse()

	mapping, err := category.LoadMapping(*categoriesFile)
	if err != nil {
		return fmt.Errorf("loading category mapping: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return recategorize(context.Background(), postgres.NewQuestionRepo(db), mapping, *dryRun)
}

func recategorize(ctx context.Context, repo port.QuestionRepository, mapping *category.Mapping, dryRun bool) error {
	// Collect every group first; updates would shift later pages.
	var groups []domain.SourceCategory
	for offset := 0; ; offset += pageSize {
		page, err := repo.ListSources(ctx, offset, pageSize)
		if err != nil {
			return fmt.Errorf("listing sources at offset %d: %w", offset, err)
		}
		groups = append(groups, page...)
		if len(page) < pageSize {
			break
		}
	}

	changes := plan(groups, mapping)
	if len(changes) == 0 {
		log.Printf("All %d source groups already match the mapping", len(groups))
		return nil
	}

	moved := 0
	for _, c := range changes {
		if dryRun {
			log.Printf("would move %d questions of %s: %s -> %s", c.count, c.sourceFile, c.from, c.to)
			continue
		}
		n, err := repo.UpdateCategoryBySource(ctx, c.sourceFile, c.from, c.to)
		if err != nil {
			log.Printf("WARN: failed to recategorize %s: %v", c.sourceFile, err)
			continue
		}
		moved += n
		log.Printf("moved %d questions of %s: %s -> %s", n, c.sourceFile, c.from, c.to)
	}

	log.Printf("Recategorize complete: %d changes planned, %d questions moved", len(changes), moved)
	return nil
}

// plan lists the groups whose stored category differs from the mapping.
func plan(groups []domain.SourceCategory, mapping *category.Mapping) []change {
	var changes []change
	for _, g := range groups {
		want := mapping.Resolve(g.SourceFile)
		if want == g.Category {
			continue
		}
		changes = append(changes, change{sourceFile: g.SourceFile, from: g.Category, to: want, count: g.Count})
	}
	return changes
}
