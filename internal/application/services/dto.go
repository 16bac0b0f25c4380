package services

import (
	"github.com/teknatem/mpbackoffice/pkg/pivot"
)

// DataSourceSummary is the list view of a registered data source
type DataSourceSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FieldCount int    `json:"field_count"`
}

// ExecuteResponse is the result of running a dashboard
type ExecuteResponse struct {
	Columns   []pivot.Column  `json:"columns"`
	Rows      []pivot.RawRow  `json:"rows"`
	Tree      *pivot.TreeNode `json:"tree"`
	RowCount  int             `json:"row_count"`
	ElapsedMS int64           `json:"elapsed_ms"`
}

// GenerateSQLResponse is the preview of the statement Execute would run
type GenerateSQLResponse struct {
	SQL     string         `json:"sql"`
	Params  []string       `json:"params"`
	Columns []pivot.Column `json:"columns"`
}
