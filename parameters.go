package goelastic

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// escapeParameter renders a value as a SQL literal.
func escapeParameter(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "NULL", nil
	case string:
		if v == "*" {
			return v, nil
		}
		return "'" + strings.ReplaceAll(v, "'", "''") + "'", nil
	case []byte:
		return escapeParameter(string(v))
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case time.Time:
		return "'" + v.Format(time.RFC3339Nano) + "'", nil
	case fmt.Stringer:
		return escapeParameter(v.String())
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := escapeParameter(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			items[i] = item
		}
		return strings.Join(items, ", "), nil
	}
	return "", errProgramming(ErrCodeInvalidParameter, errMsgUnsupportedParam, value)
}

// applyParameters substitutes pyformat placeholders, %(name)s, with escaped
// values. %% is a literal percent sign. Without parameters the statement is
// returned unchanged.
func applyParameters(statement string, params map[string]interface{}) (string, error) {
	if len(params) == 0 {
		return statement, nil
	}
	var b strings.Builder
	for i := 0; i < len(statement); i++ {
		c := statement[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(statement) && statement[i+1] == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		if i+1 >= len(statement) || statement[i+1] != '(' {
			return "", errProgramming(ErrCodeInvalidParameter, errMsgBadPlaceholder, i)
		}
		end := strings.Index(statement[i:], ")s")
		if end < 0 {
			return "", errProgramming(ErrCodeInvalidParameter, errMsgBadPlaceholder, i)
		}
		name := statement[i+2 : i+end]
		value, ok := params[name]
		if !ok {
			return "", errProgramming(ErrCodeInvalidParameter, errMsgMissingParam, name)
		}
		literal, err := escapeParameter(value)
		if err != nil {
			return "", err
		}
		b.WriteString(literal)
		i += end + 1
	}
	return b.String(), nil
}

// bindPositional substitutes the ? placeholders of a database/sql statement.
// Placeholders inside quoted strings or identifiers are left alone. Named
// arguments are matched to %(name)s placeholders instead.
func bindPositional(statement string, args []driver.NamedValue) (string, error) {
	if len(args) == 0 {
		return statement, nil
	}
	named := make(map[string]interface{})
	positional := make([]interface{}, 0, len(args))
	for _, arg := range args {
		if arg.Name != "" {
			named[arg.Name] = arg.Value
			continue
		}
		positional = append(positional, arg.Value)
	}
	if len(named) > 0 {
		if len(positional) > 0 {
			return "", errProgramming(ErrCodeInvalidParameter, errMsgParamCountMismatch, 0, len(positional))
		}
		return applyParameters(statement, named)
	}

	var b strings.Builder
	var quote byte
	next := 0
	for i := 0; i < len(statement); i++ {
		c := statement[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			if next >= len(positional) {
				return "", errProgramming(ErrCodeInvalidParameter, errMsgParamCountMismatch, countPlaceholders(statement), len(positional))
			}
			literal, err := escapeParameter(positional[next])
			if err != nil {
				return "", err
			}
			next++
			b.WriteString(literal)
			continue
		}
		b.WriteByte(c)
	}
	if next != len(positional) {
		return "", errProgramming(ErrCodeInvalidParameter, errMsgParamCountMismatch, next, len(positional))
	}
	return b.String(), nil
}

func countPlaceholders(statement string) int {
	var quote byte
	n := 0
	for i := 0; i < len(statement); i++ {
		c := statement[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			n++
		}
	}
	return n
}
