// Example: reflect the columns of an index, including the element type of arrays
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/mkelastic/goelastic"
	"github.com/mkelastic/goelastic/dialect"
)

func main() {
	dsn := flag.String("dsn", "http://localhost:9200", "data source name of the cluster")
	table := flag.String("table", "", "index to reflect")
	if !flag.Parsed() {
		flag.Parse()
	}
	if *table == "" {
		log.Fatal("-table is required")
	}

	cfg, err := goelastic.ParseDSN(*dsn)
	if err != nil {
		log.Fatalf("failed to parse dsn %v, err: %v", *dsn, err)
	}
	d := dialect.HTTP
	if cfg.Protocol == "https" {
		d = dialect.HTTPS
	}
	db := d.Open(*cfg)
	defer db.Close()

	ctx := context.Background()
	columns, err := d.GetColumns(ctx, db, *table)
	if err != nil {
		log.Fatalf("failed to get columns of %v, err: %v", *table, err)
	}
	for _, column := range columns {
		fmt.Printf("%v %v\n", column.Name, column.Type.Compile())
	}

	// the raw pseudo statement, through the cursor API
	conn, err := goelastic.Connect(ctx, *cfg)
	if err != nil {
		log.Fatalf("failed to connect, err: %v", err)
	}
	defer conn.Close()
	cur, err := conn.Cursor()
	if err != nil {
		log.Fatalf("failed to open a cursor, err: %v", err)
	}
	if _, err = cur.Execute(ctx, "SHOW ARRAY_COLUMNS FROM "+*table, nil); err != nil {
		log.Fatalf("failed to run SHOW ARRAY_COLUMNS, err: %v", err)
	}
	rows, err := cur.FetchAll()
	if err != nil {
		log.Fatalf("failed to fetch, err: %v", err)
	}
	fmt.Printf("%v array columns\n", len(rows))
	for _, row := range rows {
		fmt.Printf("  %v of %v\n", row[0], row[1])
	}
}
