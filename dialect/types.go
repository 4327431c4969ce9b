package dialect

import (
	"strings"

	"github.com/mkelastic/goelastic"
)

// ColumnType is a relational column type that can be rendered as SQL.
type ColumnType interface {
	Compile() string
}

// BaseType is a scalar column type.
type BaseType struct {
	name string
}

// Compile returns the SQL type name.
func (t BaseType) Compile() string {
	return t.name
}

func (t BaseType) String() string {
	return t.name
}

// Scalar column types.
var (
	String       = BaseType{"VARCHAR"}
	Integer      = BaseType{"INTEGER"}
	BigInteger   = BaseType{"BIGINT"}
	SmallInteger = BaseType{"SMALLINT"}
	Float        = BaseType{"FLOAT"}
	Numeric      = BaseType{"NUMERIC"}
	Boolean      = BaseType{"BOOLEAN"}
	Date         = BaseType{"DATE"}
	DateTime     = BaseType{"DATETIME"}
	LargeBinary  = BaseType{"BLOB"}
	JSON         = BaseType{"JSON"}
)

// ArrayType is a column holding an ordered sequence of Item values.
type ArrayType struct {
	Item ColumnType
}

// Compile renders ARRAY<inner>.
func (t ArrayType) Compile() string {
	item := t.Item
	if item == nil {
		item = String
	}
	return "ARRAY<" + item.Compile() + ">"
}

func (t ArrayType) String() string {
	return t.Compile()
}

// baseColumnTypes resolves scalar mapping types. Array elements are looked up
// here only, so a nested parent yields String items.
var baseColumnTypes = map[string]ColumnType{
	"binary":           LargeBinary,
	"bytes":            LargeBinary,
	"boolean":          Boolean,
	"date":             DateTime,
	"datetime":         DateTime,
	"date_nanos":       DateTime,
	"double":           Numeric,
	"scaled_float":     Numeric,
	"float":            Float,
	"half_float":       Float,
	"text":             String,
	"keyword":          String,
	"constant_keyword": String,
	"wildcard":         String,
	"ip":               String,
	"geo_point":        String,
	"version":          String,
	"byte":             SmallInteger,
	"short":            SmallInteger,
	"integer":          Integer,
	"long":             BigInteger,
	"unsigned_long":    BigInteger,
	"object":           LargeBinary,
	"nested":           String,
	"flattened":        JSON,
}

var esToColumnType = map[string]ColumnType{
	"array":  ArrayType{Item: String},
	"nested": ArrayType{Item: String},
}

// GetType maps an Elasticsearch mapping type to a ColumnType. Unknown types are
// read as String.
func GetType(esType string) ColumnType {
	if columnType, ok := esToColumnType[normalizeType(esType)]; ok {
		return columnType
	}
	return elementType(esType)
}

// elementType maps the type of an array element. It never returns an ArrayType
// for a bare nested or array mapping.
func elementType(esType string) ColumnType {
	t := normalizeType(esType)
	if inner, ok := arrayItemType(t); ok {
		return ArrayType{Item: elementType(inner)}
	}
	if columnType, ok := baseColumnTypes[t]; ok {
		return columnType
	}
	if t == "array" {
		return String
	}
	goelastic.GetLogger().Warnf("unknown type found %q, reverting to string", esType)
	return String
}

func normalizeType(esType string) string {
	return strings.ToLower(strings.TrimSpace(esType))
}

func arrayItemType(esType string) (string, bool) {
	if strings.HasPrefix(esType, "array<") && strings.HasSuffix(esType, ">") {
		return esType[len("array<") : len(esType)-1], true
	}
	return "", false
}
