package arrowbatches

import (
	"context"

	"github.com/apache/arrow/go/v16/arrow"
)

type contextKey string

const timestampOptionKey contextKey = "ARROW_TIMESTAMP_OPTION"

// TimestampOption is the unit DATE columns are converted to.
type TimestampOption = arrow.TimeUnit

// Timestamp option constants.
const (
	UseNanosecondTimestamp  TimestampOption = arrow.Nanosecond
	UseMicrosecondTimestamp TimestampOption = arrow.Microsecond
	UseMillisecondTimestamp TimestampOption = arrow.Millisecond
	UseSecondTimestamp      TimestampOption = arrow.Second
)

// WithTimestampOption returns a context that sets the timestamp unit for arrow
// batches. Milliseconds are used by default, the precision of Elasticsearch dates.
func WithTimestampOption(ctx context.Context, option TimestampOption) context.Context {
	return context.WithValue(ctx, timestampOptionKey, option)
}

func timestampOption(ctx context.Context) TimestampOption {
	if option, ok := ctx.Value(timestampOptionKey).(TimestampOption); ok {
		return option
	}
	return UseMillisecondTimestamp
}
