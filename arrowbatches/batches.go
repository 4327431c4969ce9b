// Package arrowbatches exports the materialized result of a goelastic Cursor
// as Apache Arrow records. Array columns become arrow list columns of their
// element type.
package arrowbatches

import (
	"context"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
	"github.com/apache/arrow/go/v16/arrow/memory"

	sf "github.com/mkelastic/goelastic"
)

// DefaultBatchSize is the number of rows per batch when none is given.
const DefaultBatchSize = 10000

// ArrowBatch is a slice of result rows that is converted to an arrow.Record on Fetch.
type ArrowBatch struct {
	description []sf.ColumnDescription
	rows        []sf.ResultRow
	allocator   memory.Allocator
	ctx         context.Context
}

// WithContext sets the context used by Fetch.
func (rb *ArrowBatch) WithContext(ctx context.Context) *ArrowBatch {
	rb.ctx = ctx
	return rb
}

// GetRowCount returns the number of rows in the batch.
func (rb *ArrowBatch) GetRowCount() int {
	return len(rb.rows)
}

// Schema returns the arrow schema of the batch for the timestamp option of its context.
func (rb *ArrowBatch) Schema() *arrow.Schema {
	return descriptionToSchema(rb.description, timestampOption(rb.context()))
}

// Fetch converts the batch. The caller must Release the record.
func (rb *ArrowBatch) Fetch() (arrow.Record, error) {
	ctx := rb.context()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildRecord(ctx, rb.allocator, rb.description, rb.rows)
}

func (rb *ArrowBatch) context() context.Context {
	if rb.ctx == nil {
		return context.Background()
	}
	return rb.ctx
}

// BuildRecord converts rows described by description into one arrow.Record.
func BuildRecord(ctx context.Context, allocator memory.Allocator, description []sf.ColumnDescription, rows []sf.ResultRow) (arrow.Record, error) {
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	schema := descriptionToSchema(description, timestampOption(ctx))
	builder := array.NewRecordBuilder(allocator, schema)
	defer builder.Release()
	for _, row := range rows {
		for i := range description {
			var value interface{}
			if i < len(row) {
				value = row[i]
			}
			if err := appendValue(builder.Field(i), value); err != nil {
				return nil, &sf.ElasticError{
					Number:      sf.ErrCodeArrowConversion,
					Kind:        sf.KindData,
					Message:     "cannot convert column %v: %v",
					MessageArgs: []interface{}{description[i].Name, err},
					Err:         err,
				}
			}
		}
	}
	return builder.NewRecord(), nil
}

// GetArrowBatches splits the rows the cursor has not fetched yet into batches
// of batchSize rows. The rows are consumed from the cursor.
func GetArrowBatches(cur *sf.Cursor, batchSize int, allocator memory.Allocator) ([]*ArrowBatch, error) {
	rows, err := cur.FetchAll()
	if err != nil {
		return nil, err
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	description := cur.Description()
	batches := make([]*ArrowBatch, 0, len(rows)/batchSize+1)
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, &ArrowBatch{
			description: description,
			rows:        rows[start:end],
			allocator:   allocator,
		})
	}
	return batches, nil
}
