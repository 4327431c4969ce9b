package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
	"github.com/apache/arrow/go/v16/arrow/memory"

	"github.com/mkelastic/goelastic"
	"github.com/mkelastic/goelastic/arrowbatches"
)

type sampleRecord struct {
	batchID  int
	workerID int
	id       int64
	tags     []string
}

func (s sampleRecord) String() string {
	return fmt.Sprintf("batchID: %v, workerID: %v, id: %v, tags: %v", s.batchID, s.workerID, s.id, s.tags)
}

func main() {
	dsn := flag.String("dsn", "http://localhost:9200", "data source name of the cluster")
	batchSize := flag.Int("batch", 1000, "rows per arrow batch")
	if !flag.Parsed() {
		flag.Parse()
	}

	cfg, err := goelastic.ParseDSN(*dsn)
	if err != nil {
		log.Fatalf("failed to parse dsn %v, err: %v", *dsn, err)
	}
	ctx := arrowbatches.WithTimestampOption(context.Background(), arrowbatches.UseMicrosecondTimestamp)
	conn, err := goelastic.Connect(ctx, *cfg)
	if err != nil {
		log.Fatalf("failed to connect. %v, err: %v", *dsn, err)
	}
	defer conn.Close()
	cur, err := conn.Cursor()
	if err != nil {
		log.Fatalf("failed to open a cursor. err: %v", err)
	}

	// expects an index with a long id and a keyword array tags
	query := "SELECT id, tags FROM orders"
	if _, err = cur.Execute(ctx, query, nil); err != nil {
		log.Fatalf("unable to run the query. err: %v", err)
	}
	batches, err := arrowbatches.GetArrowBatches(cur, *batchSize, memory.DefaultAllocator)
	if err != nil {
		log.Fatalf("unable to split the result into batches. err: %v", err)
	}

	batchIDs := make(chan int, 1)
	maxWorkers := len(batches)
	sampleRecordsPerBatch := make([][]sampleRecord, len(batches))

	var waitGroup sync.WaitGroup
	for workerID := 0; workerID < maxWorkers; workerID++ {
		waitGroup.Add(1)
		go func(workerID int) {
			defer waitGroup.Done()
			for batchID := range batchIDs {
				record, err := batches[batchID].WithContext(ctx).Fetch()
				if err != nil {
					log.Fatalf("Error while fetching batch %v: %v", batchID, err)
				}
				sampleRecordsPerBatch[batchID] = convertFromColumnsToRows(record, batchID, workerID)
				record.Release()
			}
		}(workerID)
	}

	for batchID := 0; batchID < len(batches); batchID++ {
		batchIDs <- batchID
	}
	close(batchIDs)
	waitGroup.Wait()

	for _, batchSampleRecords := range sampleRecordsPerBatch {
		for _, sampleRecord := range batchSampleRecords {
			fmt.Println(sampleRecord)
		}
	}
	for batchID, batch := range batches {
		fmt.Printf("BatchId: %v, number of records: %v\n", batchID, batch.GetRowCount())
	}
}

func convertFromColumnsToRows(record arrow.Record, batchID int, workerID int) []sampleRecord {
	ids := record.Column(0).(*array.Int64)
	tags := record.Column(1).(*array.List)
	values := tags.ListValues().(*array.String)
	records := make([]sampleRecord, record.NumRows())
	for rowID := range records {
		records[rowID] = sampleRecord{batchID: batchID, workerID: workerID, id: ids.Value(rowID)}
		if tags.IsNull(rowID) {
			continue
		}
		start, end := tags.ValueOffsets(rowID)
		for i := start; i < end; i++ {
			records[rowID].tags = append(records[rowID].tags, values.Value(int(i)))
		}
	}
	return records
}
