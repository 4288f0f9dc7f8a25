package models

// QueryResult holds the outcome of one ad-hoc SQL execution. Transient
// per-request, never persisted.
type QueryResult struct {
	Success  bool             `json:"success"`
	Columns  []string         `json:"columns"`
	Data     []map[string]any `json:"data"`
	RowCount int              `json:"row_count"`
	Database string           `json:"database"`
	Query    string           `json:"query"`

	// Truncated is set when the result set exceeded the transport cap. Data
	// holds the capped subset; RowCount preserves the true count seen before
	// the cap stopped the fetch.
	Truncated bool   `json:"truncated,omitempty"`
	Warning   string `json:"warning,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}
