package goelastic

import (
	"regexp"
	"strings"
)

// statementKind is the closed set of statements a Cursor dispatches on.
type statementKind int

const (
	stmtPassthrough statementKind = iota
	stmtValidTables
	stmtValidViews
	stmtArrayColumns
)

func (k statementKind) String() string {
	switch k {
	case stmtValidTables:
		return "valid_tables"
	case stmtValidViews:
		return "valid_views"
	case stmtArrayColumns:
		return "array_columns"
	}
	return "sql"
}

var (
	whitespaceRegexp   = regexp.MustCompile(`\s+`)
	arrayColumnsRegexp = regexp.MustCompile(`(?is)^\s*show\s+array_columns\s+from\s+(.*?)\s*;?\s*$`)
)

var pseudoStatements = map[string]statementKind{
	"show valid_tables": stmtValidTables,
	"show valid_views":  stmtValidViews,
}

func normalizeStatement(statement string) string {
	s := strings.TrimSpace(statement)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	return strings.ToLower(whitespaceRegexp.ReplaceAllString(s, " "))
}

// classifyStatement picks the statement kind, first match wins. For
// stmtArrayColumns the table name is returned as well.
func classifyStatement(statement string) (statementKind, string) {
	if kind, ok := pseudoStatements[normalizeStatement(statement)]; ok {
		return kind, ""
	}
	if m := arrayColumnsRegexp.FindStringSubmatch(statement); m != nil {
		return stmtArrayColumns, unquoteIdentifier(m[1])
	}
	return stmtPassthrough, ""
}

func unquoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= 2 {
		first, last := name[0], name[len(name)-1]
		if (first == '"' && last == '"') || (first == '`' && last == '`') {
			return name[1 : len(name)-1]
		}
	}
	return name
}
