package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/mkelastic/goelastic"
)

func main() {
	if !flag.Parsed() {
		flag.Parse()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()
	go func() {
		<-c
		log.Println("Caught signal, canceling...")
		cancel()
	}()

	// get environment variables
	env := func(k string, failOnMissing bool) string {
		if value := os.Getenv(k); value != "" {
			return value
		}
		if failOnMissing {
			log.Fatalf("%v environment variable is not set.", k)
		}
		return ""
	}

	cfg := &goelastic.Config{
		Host:     env("ELASTIC_TEST_HOST", true),
		Protocol: env("ELASTIC_TEST_PROTOCOL", false),
		User:     env("ELASTIC_TEST_USER", false),
		Password: env("ELASTIC_TEST_PASSWORD", false),
	}
	if port := env("ELASTIC_TEST_PORT", false); port != "" {
		var err error
		if cfg.Port, err = strconv.Atoi(port); err != nil {
			log.Fatalf("invalid ELASTIC_TEST_PORT %q: %v", port, err)
		}
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
	query := "SELECT 1"
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		log.Fatalf("failed to run a query. %v, err: %v", query, err)
	}
	defer rows.Close()
	var v int
	for rows.Next() {
		err := rows.Scan(&v)
		if err != nil {
			log.Fatalf("failed to get result. err: %v", err)
		}
		if v != 1 {
			log.Fatalf("failed to get 1. got: %v", v)
		}
	}
	if rows.Err() != nil {
		fmt.Printf("ERROR: %v\n", rows.Err())
		return
	}
	fmt.Printf("Congrats! You have successfully run %v with Elasticsearch!\n", query)
}
