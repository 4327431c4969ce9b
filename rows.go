package goelastic

import (
	"database/sql/driver"
	"io"
	"reflect"
	"strings"
)

// elasticRows adapts a materialized Cursor to driver.Rows.
type elasticRows struct {
	cursor      *Cursor
	description []ColumnDescription
}

func newElasticRows(cursor *Cursor) *elasticRows {
	return &elasticRows{cursor: cursor, description: cursor.Description()}
}

func (rows *elasticRows) Close() error {
	return rows.cursor.Close()
}

func (rows *elasticRows) Columns() []string {
	ret := make([]string, len(rows.description))
	for i, column := range rows.description {
		ret[i] = column.Name
	}
	return ret
}

func (rows *elasticRows) Next(dest []driver.Value) error {
	row, err := rows.cursor.FetchOne()
	if err != nil {
		return err
	}
	if row == nil {
		return io.EOF
	}
	for i, value := range row {
		if dest[i], err = valueToDriverValue(value, rows.description[i]); err != nil {
			return err
		}
	}
	return nil
}

// ColumnTypeDatabaseTypeName returns the type reported by the cluster, e.g. KEYWORD.
func (rows *elasticRows) ColumnTypeDatabaseTypeName(index int) string {
	if index < 0 || index >= len(rows.description) {
		return ""
	}
	return strings.ToUpper(rows.description[index].RawType)
}

// ColumnTypeLength returns the display size of textual columns.
func (rows *elasticRows) ColumnTypeLength(index int) (length int64, ok bool) {
	if index < 0 || index >= len(rows.description) {
		return 0, false
	}
	column := rows.description[index]
	if column.TypeCode != TypeString || column.DisplaySize == nil {
		return 0, false
	}
	return *column.DisplaySize, true
}

func (rows *elasticRows) ColumnTypeNullable(index int) (nullable, ok bool) {
	if index < 0 || index >= len(rows.description) || rows.description[index].Nullable == nil {
		return false, false
	}
	return *rows.description[index].Nullable, true
}

func (rows *elasticRows) ColumnTypePrecisionScale(index int) (precision, scale int64, ok bool) {
	if index < 0 || index >= len(rows.description) {
		return 0, 0, false
	}
	column := rows.description[index]
	if column.Precision == nil || column.Scale == nil {
		return 0, 0, false
	}
	return *column.Precision, *column.Scale, true
}

func (rows *elasticRows) ColumnTypeScanType(index int) reflect.Type {
	if index < 0 || index >= len(rows.description) {
		return reflectTypeNil
	}
	return semanticTypeToGo(rows.description[index].TypeCode)
}
