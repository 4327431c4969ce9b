package goelastic

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// date and datetime layouts used by Elasticsearch SQL responses
var esTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"15:04:05.000Z07:00",
	"15:04:05Z07:00",
}

// valueToDriverValue converts a decoded response value into the Go type that
// matches the column's semantic type. Values that do not fit are passed on as
// strings instead of failing the row.
func valueToDriverValue(value interface{}, column ColumnDescription) (driver.Value, error) {
	if value == nil {
		return nil, nil
	}
	switch column.TypeCode {
	case TypeLong:
		switch v := value.(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n, nil
			}
			// unsigned_long above math.MaxInt64
			return v.String(), nil
		case float64:
			return int64(v), nil
		}
	case TypeDouble:
		switch v := value.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, errData(ErrCodeMalformedResponse, "column %v holds %q, not a number", column.Name, v)
			}
			return f, nil
		case string:
			// NaN and Infinity are sent as strings
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, nil
			}
			return v, nil
		}
	case TypeBoolean:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case TypeDate:
		if v, ok := value.(string); ok {
			return parseESTime(v), nil
		}
		if v, ok := value.(json.Number); ok {
			// epoch millis
			if ms, err := v.Int64(); err == nil {
				return time.UnixMilli(ms).UTC(), nil
			}
		}
	case TypeArray:
		if v, ok := value.([]interface{}); ok {
			return normalizeNumbers(v), nil
		}
		return normalizeNumbers(value), nil
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return v, nil
	}
	// objects and multi-valued fields of scalar columns are sent as JSON text
	encoded, err := jsonAPI.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func parseESTime(value string) interface{} {
	for _, layout := range esTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return value
}

// normalizeNumbers replaces json.Number inside arrays and objects with int64 or
// float64.
func normalizeNumbers(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeNumbers(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = normalizeNumbers(item)
		}
		return out
	}
	return value
}

// Array is a scan destination for ARRAY columns. Elements are strings, int64,
// float64, bool, nil or map[string]interface{} for arrays of objects.
type Array []interface{}

// Scan implements sql.Scanner.
func (a *Array) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = nil
	case []interface{}:
		*a = Array(v)
	case []byte:
		return a.scanJSON(v)
	case string:
		if strings.HasPrefix(strings.TrimSpace(v), "[") {
			return a.scanJSON([]byte(v))
		}
		*a = Array{v}
	default:
		// a single value in an array column is an array of one
		*a = Array{v}
	}
	return nil
}

func (a *Array) scanJSON(data []byte) error {
	var decoded []interface{}
	if err := jsonAPI.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("cannot scan %q into Array: %w", data, err)
	}
	*a = Array(normalizeNumbers(decoded).([]interface{}))
	return nil
}

// Strings returns the elements formatted as strings.
func (a Array) Strings() []string {
	out := make([]string, len(a))
	for i, item := range a {
		if s, ok := item.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(item)
	}
	return out
}

// CheckNamedValue lets slices through as parameters; they are rendered as
// comma separated lists. Everything else goes through the default converter.
func (ec *Connection) CheckNamedValue(nv *driver.NamedValue) error {
	if rv := reflect.ValueOf(nv.Value); rv.IsValid() {
		kind := rv.Kind()
		if (kind == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8) || kind == reflect.Array {
			return nil
		}
	}
	var err error
	nv.Value, err = driver.DefaultParameterConverter.ConvertValue(nv.Value)
	return err
}
