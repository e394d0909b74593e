package catalog

import "time"

// Entry types surfaced by the catalog.
const (
	EntryTypeDataset = "DATASET"
	EntryTypeTable   = "TABLE"
	EntryTypeView    = "VIEW"
)

// EntrySummary is the compact entry shape returned by search.
type EntrySummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	System      string `json:"system"`
	Description string `json:"description"`
}

// SearchQuery describes a catalog search request.
type SearchQuery struct {
	// Query is the full-text search expression.
	Query string
	// Types restricts results to the given entry types when non-empty.
	Types []string
	// Systems restricts results to the given source systems when non-empty.
	Systems []string
	// PageToken resumes a previous search.
	PageToken string
	// PageSize caps the number of results; the upstream default applies at 0.
	PageSize int
}

// SearchResult holds one page of search matches.
type SearchResult struct {
	Entries       []EntrySummary `json:"entries"`
	NextPageToken string         `json:"nextPageToken"`
}

// Column describes one column of a table entry's schema.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

// Entry is the full detail shape for a catalog entry.
type Entry struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"displayName"`
	Type        string            `json:"type"`
	System      string            `json:"system"`
	Description string            `json:"description"`
	Labels      map[string]string `json:"labels"`
	Schema      []Column          `json:"schema"`
	CreateTime  time.Time         `json:"createTime"`
	UpdateTime  time.Time         `json:"updateTime"`
}

// LineageEdge is a directed lineage relation between two entries.
type LineageEdge struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Process string `json:"process"`
}

// LineageGraph holds the edges adjacent to one entry.
type LineageGraph struct {
	Upstream   []LineageEdge `json:"upstream"`
	Downstream []LineageEdge `json:"downstream"`
}

// ColumnProfile holds per-column statistics from a data-profile scan.
type ColumnProfile struct {
	Name          string  `json:"name"`
	NullRatio     float64 `json:"nullRatio"`
	DistinctRatio float64 `json:"distinctRatio"`
	Min           string  `json:"min"`
	Max           string  `json:"max"`
}

// ProfileScan is the latest data-profile scan result for an entry.
type ProfileScan struct {
	EntryID   string          `json:"entryId"`
	RowCount  int64           `json:"rowCount"`
	ScannedAt time.Time       `json:"scannedAt"`
	Columns   []ColumnProfile `json:"columns"`
}
