package dialect

import "strings"

// ArrayLiteral renders ARRAY[a, b, ...] from already compiled expressions.
func ArrayLiteral(items ...string) string {
	return "ARRAY[" + strings.Join(items, ", ") + "]"
}

// ArrayContains renders ARRAY_CONTAINS(array, value).
func ArrayContains(array, value string) string {
	return "ARRAY_CONTAINS(" + array + ", " + value + ")"
}

// ArrayLength renders ARRAY_LENGTH(array).
func ArrayLength(array string) string {
	return "ARRAY_LENGTH(" + array + ")"
}

// ArrayDistinct renders ARRAY_DISTINCT(array).
func ArrayDistinct(array string) string {
	return "ARRAY_DISTINCT(" + array + ")"
}

// QuoteIdentifier quotes an index or column name for Elasticsearch SQL.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
