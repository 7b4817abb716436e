package mcp

import (
	"fmt"
	"strings"
)

// FormatResolution formats a resolve_index result as markdown.
func FormatResolution(out ResolveIndexOutput) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Index for `%s`\n\n", out.ItemPath))

	if !out.Resolved {
		sb.WriteString("No index covers this item. Add a crawler whose root contains it.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("**Index:** `%s`\n", out.Index))
	sb.WriteString(fmt.Sprintf("**Reason:** %s", out.Reason))
	if out.Fallback {
		sb.WriteString(" (containment fallback)")
	}
	sb.WriteString("\n")

	if len(out.Candidates) == 0 {
		return sb.String()
	}

	sb.WriteString("\n| # | Index | Type | Rank |\n|---|---|---|---|\n")
	for i, c := range out.Candidates {
		rank := fmt.Sprintf("%d", c.Rank)
		if c.Unranked {
			rank = "unranked"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", i+1, c.Index, c.Type, rank))
	}
	return sb.String()
}

// FormatIndexes formats a list_indexes result as markdown.
func FormatIndexes(out ListIndexesOutput) string {
	if len(out.Indexes) == 0 {
		return "No indexes configured."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Configured Indexes (%d)\n\n", len(out.Indexes)))
	for _, idx := range out.Indexes {
		sb.WriteString(fmt.Sprintf("### %s\n\n", idx.Name))
		sb.WriteString(fmt.Sprintf("- **Type:** %s\n", idx.Type))
		sb.WriteString(fmt.Sprintf("- **Documents:** %d\n", idx.Documents))
		if len(idx.Crawlers) == 0 {
			sb.WriteString("- **Crawlers:** none\n")
		} else {
			sb.WriteString(fmt.Sprintf("- **Crawlers:** %s\n", strings.Join(idx.Crawlers, ", ")))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
