package query

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// TotalHits returns the hit count of a search response. Clusters before 7.0
// report a plain number; later ones report {"value": n, "relation": ...}.
func (sr *SearchResponse) TotalHits() int64 {
	raw := strings.TrimSpace(string(sr.Hits.Total))
	if raw == "" || raw == "null" {
		return int64(len(sr.Hits.Hits))
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	var total struct {
		Value int64 `json:"value"`
	}
	if err := jsoniter.Unmarshal(sr.Hits.Total, &total); err != nil {
		return int64(len(sr.Hits.Hits))
	}
	return total.Value
}

// DocCount parses the docs.count column. Closed indices report no count.
func (is IndexStat) DocCount() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(is.DocsCount), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ErrorCause returns the error some clusters report with a 200 status. Both the
// structured and the bare string form are accepted.
func (sr *SQLResponse) ErrorCause() (ErrorCause, bool) {
	raw := strings.TrimSpace(string(sr.Error))
	if raw == "" || raw == "null" {
		return ErrorCause{}, false
	}
	return (&ErrorResponse{Error: sr.Error}).Cause(), true
}

// Cause decodes the error envelope. Some endpoints return a bare string.
func (er *ErrorResponse) Cause() ErrorCause {
	var cause ErrorCause
	if err := jsoniter.Unmarshal(er.Error, &cause); err == nil && cause.Type != "" {
		return cause
	}
	var reason string
	if err := jsoniter.Unmarshal(er.Error, &reason); err == nil {
		return ErrorCause{Type: "error", Reason: reason}
	}
	return ErrorCause{Type: "error", Reason: string(er.Error)}
}

// Detail returns the human readable description of the cause.
func (ec ErrorCause) Detail() string {
	if ec.Details != "" {
		return ec.Reason + ": " + ec.Details
	}
	return ec.Reason
}
