package arrowbatches

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02",
}

// appendValue appends one decoded response value to builder. A scalar value in
// a list column becomes a list of one.
func appendValue(builder array.Builder, value interface{}) error {
	if value == nil {
		builder.AppendNull()
		return nil
	}
	switch b := builder.(type) {
	case *array.Int64Builder:
		n, err := toInt64(value)
		if err != nil {
			return err
		}
		b.Append(n)
	case *array.Float64Builder:
		f, err := toFloat64(value)
		if err != nil {
			return err
		}
		b.Append(f)
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("cannot convert %T to boolean", value)
		}
		b.Append(v)
	case *array.TimestampBuilder:
		ts, err := toTimestamp(value, b.Type().(*arrow.TimestampType).Unit)
		if err != nil {
			return err
		}
		b.Append(ts)
	case *array.StringBuilder:
		s, err := toString(value)
		if err != nil {
			return err
		}
		b.Append(s)
	case *array.ListBuilder:
		b.Append(true)
		elements, ok := value.([]interface{})
		if !ok {
			elements = []interface{}{value}
		}
		for _, element := range elements {
			if err := appendValue(b.ValueBuilder(), element); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported arrow builder %T", builder)
	}
	return nil
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Int64()
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to int64", value)
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Float64()
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		// NaN and Infinity
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to float64", value)
}

func toTimestamp(value interface{}, unit arrow.TimeUnit) (arrow.Timestamp, error) {
	var t time.Time
	switch v := value.(type) {
	case string:
		parsed, err := parseDate(v)
		if err != nil {
			return 0, err
		}
		t = parsed
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			return 0, err
		}
		t = time.UnixMilli(ms)
	case time.Time:
		t = v
	default:
		return 0, fmt.Errorf("cannot convert %T to timestamp", value)
	}
	switch unit {
	case arrow.Second:
		return arrow.Timestamp(t.Unix()), nil
	case arrow.Millisecond:
		return arrow.Timestamp(t.UnixMilli()), nil
	case arrow.Microsecond:
		return arrow.Timestamp(t.UnixMicro()), nil
	}
	return arrow.Timestamp(t.UnixNano()), nil
}

func parseDate(value string) (t time.Time, err error) {
	for _, layout := range dateLayouts {
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return t, fmt.Errorf("cannot parse %q as a date", value)
}

func toString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	// objects are kept as JSON text
	encoded, err := jsonAPI.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
