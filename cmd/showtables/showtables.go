// Example: list the tables and views that hold documents
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"

	_ "github.com/mkelastic/goelastic"
)

func main() {
	dsn := flag.String("dsn", "http://localhost:9200", "data source name of the cluster")
	if !flag.Parsed() {
		flag.Parse()
	}

	db, err := sql.Open("elasticsearch", *dsn)
	if err != nil {
		log.Fatalf("failed to connect. %v, err: %v", *dsn, err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, query := range []string{"SHOW VALID_TABLES", "SHOW VALID_VIEWS"} {
		fmt.Printf("%v:\n", query)
		if err = printNames(ctx, db, query); err != nil {
			log.Fatalf("failed to run a query. %v, err: %v", query, err)
		}
	}
}

// printNames prints the name column of a SHOW TABLES shaped result.
func printNames(ctx context.Context, db *sql.DB, query string) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	var catalog, name, tableType, kind sql.NullString
	for rows.Next() {
		if err = rows.Scan(&catalog, &name, &tableType, &kind); err != nil {
			return err
		}
		fmt.Printf("  %v (%v)\n", name.String, tableType.String)
	}
	return rows.Err()
}
