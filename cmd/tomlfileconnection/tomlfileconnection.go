// Example: How to connect to the cluster with the toml file configuration
// Prerequisite: a connections.toml file in ELASTIC_HOME with one section per connection
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mkelastic/goelastic"
)

func main() {
	if !flag.Parsed() {
		flag.Parse()
	}

	os.Setenv("ELASTIC_HOME", "<The directory path where the toml file exists>")
	os.Setenv("ELASTIC_DEFAULT_CONNECTION_NAME", "<DSN Name>")

	cfg, err := goelastic.LoadConnectionConfig()
	if err != nil {
		log.Fatalf("failed to create Config, err: %v", err)
	}
	dsn, err := goelastic.DSN(cfg)
	if err != nil {
		log.Fatalf("failed to create DSN from Config: %v, err: %v", cfg, err)
	}

	db, err := sql.Open("elasticsearch", dsn)
	if err != nil {
		log.Fatalf("failed to connect. %v, err: %v", dsn, err)
	}
	defer db.Close()
	query := "SHOW VALID_TABLES"
	rows, err := db.Query(query)
	if err != nil {
		log.Fatalf("failed to run a query. %v, err: %v", query, err)
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		log.Fatalf("failed to get columns. err: %v", err)
	}
	values := make([]sql.NullString, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	count := 0
	for rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			log.Fatalf("failed to get result. err: %v", err)
		}
		count++
	}
	if rows.Err() != nil {
		fmt.Printf("ERROR: %v\n", rows.Err())
		return
	}
	fmt.Printf("Congrats! You have successfully run %v with Elasticsearch, %v tables found.\n", query, count)
}
