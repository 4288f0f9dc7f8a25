// reconcile-transfers removes source-container duplicates left behind by
// partial transfers (the destination write landed, the source delete failed).
//
// A source document counts as a duplicate when a document with the same
// user_prompt, query, and assistant_prompt exists in the paired official
// container. The destination copy is authoritative; the source copy is the
// leftover and gets deleted.
//
// Usage: go run ./scripts/reconcile-transfers <source-container>
//
// Database connection: Uses standard PG* environment variables
//
// Flags:
//
//	-dry-run   Show what would be deleted without actually deleting (default: true)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/blitz-ai/feedback-console/pkg/containers"
)

func main() {
	dryRun := flag.Bool("dry-run", true, "Show what would be deleted without actually deleting")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-dry-run=false] <source-container>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		fmt.Fprintf(os.Stderr, "  -dry-run  Show what would be deleted without deleting (default: true)\n")
		os.Exit(1)
	}

	source, err := containers.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid source container: %v\n", err)
		os.Exit(1)
	}
	target, ok := containers.TransferTarget(source)
	if !ok {
		fmt.Fprintf(os.Stderr, "Container %s has no transfer target\n", source)
		os.Exit(1)
	}

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, buildConnString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	if *dryRun {
		fmt.Println("DRY RUN - no changes will be made")
		fmt.Println("Run with -dry-run=false to actually delete duplicates")
		fmt.Println()
	}

	count, err := reconcile(ctx, conn, source, target, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reconcile failed: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Printf("\nDuplicates that would be deleted from %s: %d\n", source, count)
	} else {
		fmt.Printf("\nDuplicates deleted from %s: %d\n", source, count)
	}
}

// reconcile finds documents in source whose text triple also exists in
// target and deletes the source copies. With dryRun it only reports them.
func reconcile(ctx context.Context, conn *pgx.Conn, source, target containers.Container, dryRun bool) (int, error) {
	if dryRun {
		rows, err := conn.Query(ctx, `
			SELECT s.id, s.user_prompt
			FROM feedback_documents s
			WHERE s.container = $1
			  AND EXISTS (
				SELECT 1 FROM feedback_documents t
				WHERE t.container = $2
				  AND t.user_prompt = s.user_prompt
				  AND t.query = s.query
				  AND t.assistant_prompt = s.assistant_prompt
			  )
		`, string(source), string(target))
		if err != nil {
			return 0, fmt.Errorf("query failed: %w", err)
		}
		defer rows.Close()

		var count int
		for rows.Next() {
			var id, prompt string
			if err := rows.Scan(&id, &prompt); err != nil {
				return 0, fmt.Errorf("scan failed: %w", err)
			}
			count++
			fmt.Printf("  %s %q\n", id, truncate(prompt, 60))
		}
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("rows iteration failed: %w", err)
		}

		if count == 0 {
			fmt.Println("  No duplicates found")
		}
		return count, nil
	}

	result, err := conn.Exec(ctx, `
		DELETE FROM feedback_documents s
		WHERE s.container = $1
		  AND EXISTS (
			SELECT 1 FROM feedback_documents t
			WHERE t.container = $2
			  AND t.user_prompt = s.user_prompt
			  AND t.query = s.query
			  AND t.assistant_prompt = s.assistant_prompt
		  )
	`, string(source), string(target))
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}

	return int(result.RowsAffected()), nil
}

func buildConnString() string {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "postgres")
	password := os.Getenv("PGPASSWORD")
	dbname := getEnvOrDefault("PGDATABASE", "feedback_console")

	connStr := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)
	if password != "" {
		connStr += fmt.Sprintf(" password=%s", password)
	}
	return connStr
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
