package table

import (
	"sort"
	"strings"
)

// SelectOptions controls how raw rows are matched to categories.
type SelectOptions struct {
	// Strict requires the normalised label to equal the lowercased category
	// name instead of merely containing its first word.
	Strict bool
}

// NormalizeLabel trims and lowercases a category cell. Missing cells
// normalise to "", which no token can match.
func NormalizeLabel(c Cell) string {
	if !c.Valid {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.Value))
}

// MatchToken returns the loose-mode search token for a category: the first
// whitespace-delimited word of its lowercased name ("Monthly pass" →
// "monthly").
func MatchToken(category string) string {
	fields := strings.Fields(strings.ToLower(category))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Match returns the index of the first label containing token. Labels are
// expected to be normalised already. An empty token or label never matches.
func Match(labels []string, token string) (int, bool) {
	for i, l := range labels {
		if labelMatches(l, token, false) {
			return i, true
		}
	}
	return -1, false
}

func labelMatches(label, token string, strict bool) bool {
	if label == "" || token == "" {
		return false
	}
	if strict {
		return label == token
	}
	return strings.Contains(label, token)
}

func matchAll(labels []string, token string, strict bool) []int {
	var idx []int
	for i, l := range labels {
		if labelMatches(l, token, strict) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Select picks, for each category, the first raw row whose normalised
// Factors label matches it. Categories without a match are left out of
// Rows and listed in Missing. The raw table is not modified.
func Select(raw *RawTable, opts SelectOptions) (*Selection, error) {
	if !raw.HasColumn(CategoryColumn) {
		return nil, &MissingColumnError{Column: CategoryColumn, Columns: raw.Columns()}
	}

	labels := make([]string, raw.Len())
	for i, r := range raw.rows {
		labels[i] = NormalizeLabel(r[CategoryColumn])
	}

	sel := &Selection{Columns: raw.Columns()}
	byRow := make(map[int][]string)
	for _, category := range DefaultCategories {
		token := MatchToken(category)
		if opts.Strict {
			token = strings.ToLower(strings.TrimSpace(category))
		}
		hits := matchAll(labels, token, opts.Strict)
		if len(hits) == 0 {
			sel.Missing = append(sel.Missing, category)
			continue
		}
		if len(hits) > 1 {
			sel.Ambiguous = append(sel.Ambiguous, Ambiguity{Category: category, Rows: hits})
		}
		first := hits[0]
		sel.Rows = append(sel.Rows, Selected{
			Category: category,
			Index:    first,
			Label:    raw.rows[first][CategoryColumn].Value,
			Row:      raw.rows[first].clone(),
		})
		byRow[first] = append(byRow[first], category)
	}

	for row, cats := range byRow {
		if len(cats) > 1 {
			sel.Shared = append(sel.Shared, Overlap{Row: row, Categories: cats})
		}
	}
	sort.Slice(sel.Shared, func(i, j int) bool {
		return sel.Shared[i].Row < sel.Shared[j].Row
	})
	return sel, nil
}
