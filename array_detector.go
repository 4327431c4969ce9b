package goelastic

import (
	"context"
	"sort"
)

// arrayDetector infers array columns from an index mapping and one sampled
// document. The mapping alone cannot tell a scalar field from a multi-valued one.
type arrayDetector struct {
	api     clusterAPI
	metrics *Metrics
}

func newArrayDetector(api clusterAPI) *arrayDetector {
	return &arrayDetector{api: api, metrics: driverMetrics}
}

// detectArrayColumns returns the array columns of tableName. An index without
// documents has none. Only the first element of an array of objects is used to
// derive the nested field names.
func (ad *arrayDetector) detectArrayColumns(ctx context.Context, tableName string) ([]ArrayColumnEntry, error) {
	properties, err := ad.api.fetchIndexMapping(ctx, tableName)
	if err != nil {
		return nil, err
	}
	sample, err := ad.api.fetchSample(ctx, tableName, 1)
	if err != nil {
		return nil, err
	}
	entries := make([]ArrayColumnEntry, 0)
	if sample.TotalHits() == 0 || len(sample.Hits.Hits) == 0 {
		return entries, nil
	}
	source := sample.Hits.Hits[0].Source

	fields := make([]string, 0, len(properties))
	for name := range properties {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	for _, field := range fields {
		declared, ok := properties[field]["type"].(string)
		if !ok {
			// object and nested fields carry properties instead of a type
			continue
		}
		values, ok := source[field].([]interface{})
		if !ok {
			continue
		}
		if len(values) > 0 {
			if first, isObject := values[0].(map[string]interface{}); isObject {
				keys := make([]string, 0, len(first))
				for key := range first {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					entries = append(entries, ArrayColumnEntry{QualifiedName: field + "." + key, ElementType: declared})
				}
				continue
			}
		}
		entries = append(entries, ArrayColumnEntry{QualifiedName: field, ElementType: declared})
	}
	logger.WithContext(ctx).Debugf("%v array columns found in %v", len(entries), tableName)
	ad.metrics.arrayColumns.Add(float64(len(entries)))
	return entries, nil
}
