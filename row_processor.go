package goelastic

// processRow aligns a raw result row with its description and normalizes the
// values of ARRAY columns. It never mutates row.
func processRow(row []interface{}, description []ColumnDescription) (ResultRow, error) {
	if len(row) != len(description) {
		return nil, errData(ErrCodeRowLengthMismatch, errMsgRowLengthMismatch, len(row), len(description))
	}
	processed := make(ResultRow, len(row))
	for i, value := range row {
		if description[i].TypeCode == TypeArray {
			processed[i] = normalizeArrayValue(value)
			continue
		}
		processed[i] = value
	}
	return processed, nil
}

// normalizeArrayValue copies every object element of an array of objects so the
// result does not alias the decoded response. Scalars and scalar arrays are
// returned as is.
func normalizeArrayValue(value interface{}) interface{} {
	elements, ok := value.([]interface{})
	if !ok || len(elements) == 0 {
		return value
	}
	if _, isObject := elements[0].(map[string]interface{}); !isObject {
		return elements
	}
	copied := make([]interface{}, len(elements))
	for i, element := range elements {
		obj, ok := element.(map[string]interface{})
		if !ok {
			copied[i] = element
			continue
		}
		clone := make(map[string]interface{}, len(obj))
		for k, v := range obj {
			clone[k] = v
		}
		copied[i] = clone
	}
	return copied
}
