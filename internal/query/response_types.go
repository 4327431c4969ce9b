package query

import "encoding/json"

// SQLRequest is the body of a request to the SQL endpoint.
type SQLRequest struct {
	Query                   string `json:"query"`
	FetchSize               int    `json:"fetch_size,omitempty"`
	TimeZone                string `json:"time_zone,omitempty"`
	FieldMultiValueLeniency bool   `json:"field_multi_value_leniency,omitempty"`
}

// SQLColumn describes a column of a SQL response.
type SQLColumn struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DisplaySize *int64 `json:"display_size,omitempty"`
}

// SQLResponse is the body returned by the SQL endpoint. Columns is nil when the
// server did not send a columns field at all.
type SQLResponse struct {
	Columns []SQLColumn     `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
	Cursor  string          `json:"cursor,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// ErrorResponse is the error envelope of the cluster REST API.
type ErrorResponse struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

// ErrorCause is the structured form of ErrorResponse.Error.
type ErrorCause struct {
	Type      string       `json:"type"`
	Reason    string       `json:"reason"`
	Details   string       `json:"details,omitempty"`
	Index     string       `json:"index,omitempty"`
	RootCause []ErrorCause `json:"root_cause,omitempty"`
}

// IndexMapping is one entry of a GET <index>/_mapping response.
type IndexMapping struct {
	Mappings struct {
		Properties map[string]map[string]interface{} `json:"properties"`
	} `json:"mappings"`
}

// SearchResponse is the subset of a _search response used for sampling.
type SearchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []SearchHit     `json:"hits"`
	} `json:"hits"`
}

// SearchHit is one document of a SearchResponse.
type SearchHit struct {
	Index  string                 `json:"_index"`
	ID     string                 `json:"_id"`
	Source map[string]interface{} `json:"_source"`
}

// IndexStat is one row of _cat/indices?format=json. Counts are strings on the wire.
type IndexStat struct {
	Index     string `json:"index"`
	Health    string `json:"health"`
	Status    string `json:"status"`
	DocsCount string `json:"docs.count"`
}

// ClusterInfo is the body of GET /.
type ClusterInfo struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number       string `json:"number"`
		Distribution string `json:"distribution,omitempty"`
	} `json:"version"`
}
