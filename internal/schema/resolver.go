package schema

import (
	"fmt"
	"strings"

	"github.com/AngelCh415/adreport/internal/models"
)

// SchemaError lists the canonical fields that could not be resolved.
type SchemaError struct {
	Missing []string `json:"missing_fields"`
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: unresolved fields: %s", strings.Join(e.Missing, ", "))
}

type Options struct {
	// RequireRevenue se activa cuando no hay precio unitario para derivar el revenue.
	RequireRevenue bool
	// GroupBy names the grouping column explicitly.
	GroupBy string
}

type column struct {
	raw  string
	norm string
}

func normalizeColumns(cols []string) []column {
	out := make([]column, 0, len(cols))
	seen := map[string]struct{}{}
	for _, c := range cols {
		n := strings.TrimSpace(c)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, column{raw: c, norm: n})
	}
	return out
}

// MatchExact returns the first alias (in alias order) present among cols.
// Columns in claimed are skipped.
func MatchExact(cols []string, aliases []string, claimed map[string]bool) (string, bool) {
	nc := normalizeColumns(cols)
	for _, a := range aliases {
		for _, c := range nc {
			if claimed[c.raw] {
				continue
			}
			if c.norm == a {
				return c.raw, true
			}
		}
	}
	return "", false
}

// MatchContains returns the first column (in column order) whose name
// contains any keyword, case-insensitively. Columns in claimed are skipped.
func MatchContains(cols []string, keywords []string, claimed map[string]bool) (string, string, bool) {
	for _, c := range normalizeColumns(cols) {
		if claimed[c.raw] {
			continue
		}
		low := strings.ToLower(c.norm)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(low, strings.ToLower(kw)) {
				return c.raw, kw, true
			}
		}
	}
	return "", "", false
}

// Resolve maps the table header to canonical fields. Exact aliases are tried
// for every field before any substring fallback, so a loose match never steals
// a column an exact alias would have claimed.
func Resolve(cols []string, opts Options) (models.ColumnMap, error) {
	return ResolveWith(cols, numericRules, opts)
}

func ResolveWith(cols []string, rules []Rule, opts Options) (models.ColumnMap, error) {
	cm := models.ColumnMap{Fields: map[string]string{}}
	claimed := map[string]bool{}
	var missing []string

	// 1) alias exactos
	for _, r := range rules {
		if c, ok := MatchExact(cols, r.Aliases, claimed); ok {
			cm.Fields[r.Field] = c
			claimed[c] = true
		}
	}

	// 2) dimensión de agrupación
	nc := normalizeColumns(cols)
	switch {
	case strings.TrimSpace(opts.GroupBy) != "":
		want := strings.TrimSpace(opts.GroupBy)
		found := false
		for _, c := range nc {
			if c.norm == want {
				cm.Fields[models.FieldGroup] = c.raw
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, models.FieldGroup)
		}
	default:
		if c, ok := MatchExact(cols, groupAliases, nil); ok {
			cm.Fields[models.FieldGroup] = c
		} else if len(nc) > 0 {
			// política permisiva: sin dimensión conocida se agrupa por la primera columna
			cm.Fields[models.FieldGroup] = nc[0].raw
			cm.Loose = append(cm.Loose, models.LooseMatch{Field: models.FieldGroup, Column: nc[0].raw, Mode: models.MatchFirstCol})
		} else {
			missing = append(missing, models.FieldGroup)
		}
	}
	if g, ok := cm.Fields[models.FieldGroup]; ok {
		claimed[g] = true
	}
	if c, ok := MatchExact(cols, keywordAliases, nil); ok {
		cm.Fields[models.FieldKeyword] = c
		claimed[c] = true
	}

	// 3) fallback por substring, sólo para lo que no resolvió exacto
	for _, r := range rules {
		if _, ok := cm.Fields[r.Field]; ok {
			continue
		}
		if c, kw, ok := MatchContains(cols, r.Keywords, claimed); ok {
			cm.Fields[r.Field] = c
			claimed[c] = true
			cm.Loose = append(cm.Loose, models.LooseMatch{Field: r.Field, Column: c, Keyword: kw, Mode: models.MatchContains})
		}
	}

	for _, r := range rules {
		if _, ok := cm.Fields[r.Field]; ok {
			continue
		}
		if r.Required || (r.Field == models.FieldRevenue && opts.RequireRevenue) {
			missing = append(missing, r.Field)
		}
	}
	if len(missing) > 0 {
		return models.ColumnMap{}, &SchemaError{Missing: missing}
	}
	return cm, nil
}
