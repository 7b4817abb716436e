package mcp

// ResolveIndexInput defines the input schema for the resolve_index tool.
type ResolveIndexInput struct {
	Database string `json:"database,omitempty" jsonschema:"content database name, default master"`
	Path     string `json:"path,omitempty" jsonschema:"item path, e.g. /sitecore/content/home"`
	ID       string `json:"id,omitempty" jsonschema:"item ID; used instead of path when set"`
	Explain  bool   `json:"explain,omitempty" jsonschema:"include every ranked candidate in the result"`
}

// ResolveIndexOutput defines the output schema for the resolve_index tool.
type ResolveIndexOutput struct {
	ItemID     string            `json:"item_id"`
	ItemPath   string            `json:"item_path"`
	Index      string            `json:"index,omitempty" jsonschema:"name of the responsible index, empty when none"`
	Resolved   bool              `json:"resolved"`
	Reason     string            `json:"reason" jsonschema:"selection rule: single, best-rank, default-type, first or none"`
	Fallback   bool              `json:"fallback" jsonschema:"true when candidates came from crawler containment"`
	Candidates []CandidateOutput `json:"candidates,omitempty"`
}

// CandidateOutput is one ranked candidate of a resolution.
type CandidateOutput struct {
	Index    string `json:"index"`
	Type     string `json:"type"`
	Rank     int    `json:"rank" jsonschema:"distance from the crawler root, -1 when unranked"`
	Unranked bool   `json:"unranked,omitempty"`
}

// ListIndexesInput defines the input schema for the list_indexes tool (no parameters).
type ListIndexesInput struct{}

// ListIndexesOutput defines the output schema for the list_indexes tool.
type ListIndexesOutput struct {
	Indexes []IndexInfo `json:"indexes"`
}

// IndexInfo describes a configured search index.
type IndexInfo struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Crawlers  []string `json:"crawlers"`
	Documents int      `json:"documents"`
}

// SearchIndexInput defines the input schema for the search_index tool.
type SearchIndexInput struct {
	Index string `json:"index" jsonschema:"name of the index to query"`
	Query string `json:"query" jsonschema:"the search query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchIndexOutput defines the output schema for the search_index tool.
type SearchIndexOutput struct {
	Index   string   `json:"index"`
	Results []string `json:"results" jsonschema:"document IDs in database:id form, best first"`
}

// clampLimit returns value clamped to [min, max], or def when value is not positive.
func clampLimit(value, def, min, max int) int {
	if value <= 0 {
		return def
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
