package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"strings"

	"github.com/hyperctl/hypervisor/pkg/storage"
	_ "github.com/lib/pq"
)

var (
	dsn    = flag.String("dsn", "", "Postgres connection string (required)")
	dryRun = flag.Bool("dry-run", false, "Print the statements that would run without executing them")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("hypervisor schema migration tool")
	log.Println("=================================")

	if *dsn == "" {
		log.Fatal("missing required -dsn flag")
	}

	statements := splitStatements(storage.Schema)
	log.Printf("Loaded %d statements from schema.sql", len(statements))
	log.Printf("Dry run: %v", *dryRun)

	if *dryRun {
		for i, stmt := range statements {
			log.Printf("[DRY RUN] statement %d:\n%s", i+1, stmt)
		}
		log.Println("\nDry run completed. No changes made.")
		return
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to connect: %v", err)
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("statement %d failed: %v\n%s", i+1, err, stmt)
		}
		log.Printf("✓ applied statement %d/%d", i+1, len(statements))
	}

	log.Println("\n✓ Migration completed successfully!")
}

// splitStatements splits a .sql file's text into individual statements at
// every semicolon, dropping blank segments. It's deliberately simple:
// schema.sql has no semicolons inside string literals or function bodies.
func splitStatements(schema string) []string {
	raw := strings.Split(schema, ";")
	statements := make([]string, 0, len(raw))
	for _, s := range raw {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			continue
		}
		statements = append(statements, trimmed+";")
	}
	return statements
}
