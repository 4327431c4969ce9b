package arrowbatches

import (
	"github.com/apache/arrow/go/v16/arrow"

	sf "github.com/mkelastic/goelastic"
)

const esTypeMetadataKey = "ES_TYPE"

func descriptionToSchema(description []sf.ColumnDescription, unit arrow.TimeUnit) *arrow.Schema {
	fields := make([]arrow.Field, len(description))
	for i, column := range description {
		t := scalarType(column.TypeCode, unit)
		if column.TypeCode == sf.TypeArray {
			t = arrow.ListOf(scalarType(column.ElementSemanticType(), unit))
		}
		fields[i] = arrow.Field{
			Name:     column.Name,
			Type:     t,
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{esTypeMetadataKey}, []string{column.RawType}),
		}
	}
	return arrow.NewSchema(fields, nil)
}

func scalarType(st sf.SemanticType, unit arrow.TimeUnit) arrow.DataType {
	switch st {
	case sf.TypeLong:
		return arrow.PrimitiveTypes.Int64
	case sf.TypeDouble:
		return arrow.PrimitiveTypes.Float64
	case sf.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case sf.TypeDate:
		return &arrow.TimestampType{Unit: unit, TimeZone: "UTC"}
	}
	return arrow.BinaryTypes.String
}
