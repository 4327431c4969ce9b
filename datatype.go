package goelastic

import (
	"reflect"
	"strings"
	"time"
)

// SemanticType is the type code of a result column.
type SemanticType int

const (
	// TypeString is a textual column. Unknown cluster types map here.
	TypeString SemanticType = iota
	// TypeLong is an integral column.
	TypeLong
	// TypeDouble is a floating point column.
	TypeDouble
	// TypeBoolean is a boolean column.
	TypeBoolean
	// TypeDate is a date or datetime column.
	TypeDate
	// TypeArray marks a column whose values are ordered sequences. The cluster
	// never reports it; it is inferred by the driver.
	TypeArray
)

var semanticTypeNames = []string{
	"STRING",
	"LONG",
	"DOUBLE",
	"BOOLEAN",
	"DATE",
	"ARRAY",
}

func (st SemanticType) String() string {
	if st < 0 || int(st) >= len(semanticTypeNames) {
		return "UNKNOWN"
	}
	return semanticTypeNames[st]
}

var rawTypeToSemantic = map[string]SemanticType{
	"keyword":          TypeString,
	"text":             TypeString,
	"constant_keyword": TypeString,
	"wildcard":         TypeString,
	"match_only_text":  TypeString,
	"ip":               TypeString,
	"version":          TypeString,
	"geo_point":        TypeString,
	"geo_shape":        TypeString,
	"shape":            TypeString,
	"binary":           TypeString,
	"object":           TypeString,
	"nested":           TypeString,
	"unsupported":      TypeString,
	"null":             TypeString,
	"long":             TypeLong,
	"integer":          TypeLong,
	"short":            TypeLong,
	"byte":             TypeLong,
	"unsigned_long":    TypeLong,
	"double":           TypeDouble,
	"float":            TypeDouble,
	"half_float":       TypeDouble,
	"scaled_float":     TypeDouble,
	"boolean":          TypeBoolean,
	"date":             TypeDate,
	"datetime":         TypeDate,
	"date_nanos":       TypeDate,
	"time":             TypeDate,
}

// mapType converts a cluster reported field type into a SemanticType. Array-ness
// wins over the element type; the element type of an array column is tracked
// separately.
func mapType(rawType string, isArray bool) SemanticType {
	if isArray {
		return TypeArray
	}
	if st, ok := rawTypeToSemantic[strings.ToLower(strings.TrimSpace(rawType))]; ok {
		return st
	}
	// unknown types are read as strings, lossy but never failing
	return TypeString
}

func isArrayType(rawType string) bool {
	return strings.Contains(strings.ToLower(rawType), "array")
}

// arrayElementType returns x for a raw type of the form array<x>.
func arrayElementType(rawType string) string {
	t := strings.TrimSpace(rawType)
	if len(t) < len("array<>") || !strings.EqualFold(t[:6], "array<") || t[len(t)-1] != '>' {
		return ""
	}
	return strings.TrimSpace(t[6 : len(t)-1])
}

// ColumnDescription describes one column of a result set. Optional attributes
// are nil when the cluster does not report them.
type ColumnDescription struct {
	Name         string
	TypeCode     SemanticType
	DisplaySize  *int64
	InternalSize *int64
	Precision    *int64
	Scale        *int64
	Nullable     *bool
	// RawType is the type name reported by the cluster.
	RawType string
}

// ElementType returns the element type of an array column when the cluster
// reported one.
func (cd ColumnDescription) ElementType() string {
	if cd.TypeCode != TypeArray {
		return ""
	}
	return arrayElementType(cd.RawType)
}

func newColumnDescription(name string, rawType string) ColumnDescription {
	return ColumnDescription{
		Name:     name,
		TypeCode: mapType(rawType, isArrayType(rawType)),
		RawType:  rawType,
	}
}

func stringColumn(name string) ColumnDescription {
	return ColumnDescription{Name: name, TypeCode: TypeString, RawType: "keyword"}
}

// ResultRow is one materialized row, positionally aligned with the description.
type ResultRow []interface{}

// ArrayColumnEntry is a field that holds multiple values in the sampled document.
// QualifiedName is dot-joined for fields inside an array of objects.
type ArrayColumnEntry struct {
	QualifiedName string
	ElementType   string
}

var (
	reflectTypeNil     = reflect.TypeOf(nil)
	reflectTypeString  = reflect.TypeOf("")
	reflectTypeInt64   = reflect.TypeOf(int64(0))
	reflectTypeFloat64 = reflect.TypeOf(float64(0))
	reflectTypeBool    = reflect.TypeOf(true)
	reflectTypeTime    = reflect.TypeOf(time.Time{})
	reflectTypeArray   = reflect.TypeOf([]interface{}{})
)

func semanticTypeToGo(st SemanticType) reflect.Type {
	switch st {
	case TypeString:
		return reflectTypeString
	case TypeLong:
		return reflectTypeInt64
	case TypeDouble:
		return reflectTypeFloat64
	case TypeBoolean:
		return reflectTypeBool
	case TypeDate:
		return reflectTypeTime
	case TypeArray:
		return reflectTypeArray
	}
	return reflectTypeNil
}

// ElementSemanticType returns the SemanticType of the elements of an array
// column, TypeString when the cluster did not report the element type.
func (cd ColumnDescription) ElementSemanticType() SemanticType {
	return mapType(cd.ElementType(), false)
}
