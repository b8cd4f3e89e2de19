// Package reconcile canonicalises business names so that licence rows and
// storefront rows for the same business share one join key.
package reconcile

import (
	"strings"

	"vanbiz/internal/table"
	"vanbiz/pkg/contracts/domain"
)

type matcher struct {
	needle string
}

func newMatcher(pattern string) matcher {
	return matcher{needle: strings.ToLower(pattern)}
}

// matches reports whether a string cell contains the pattern. Null and
// non-string cells never match.
func (m matcher) matches(v table.Value) bool {
	s, ok := v.Str()
	return ok && strings.Contains(strings.ToLower(s), m.needle)
}

// ApplyMapping overwrites targetField with the rule's canonical name on every
// row whose searchField contains the rule's pattern. Rules run in order, so a
// later matching rule wins.
func ApplyMapping(t *table.Table, searchField, targetField string, rules []Rule) (*table.Table, error) {
	search, err := t.ColumnIndex(searchField)
	if err != nil {
		return nil, err
	}
	target, err := t.ColumnIndex(targetField)
	if err != nil {
		return nil, err
	}

	rows := cloneRows(t)
	for _, rule := range rules {
		m := newMatcher(rule.Pattern)
		canonical := table.String(rule.Canonical)
		for _, r := range rows {
			if m.matches(r[search]) {
				r[target] = canonical
			}
		}
	}
	return table.New(t.Columns(), rows)
}

// ApplyDirectNames replaces a field with a name verbatim when the field
// contains that name. Every name is checked against every field, names in
// order. Running it twice gives the same table as running it once.
func ApplyDirectNames(t *table.Table, fields []string, names []string) (*table.Table, error) {
	idx := make([]int, len(fields))
	for i, f := range fields {
		c, err := t.ColumnIndex(f)
		if err != nil {
			return nil, err
		}
		idx[i] = c
	}

	rows := cloneRows(t)
	for _, name := range names {
		m := newMatcher(name)
		value := table.String(name)
		for _, c := range idx {
			for _, r := range rows {
				if m.matches(r[c]) {
					r[c] = value
				}
			}
		}
	}
	return table.New(t.Columns(), rows)
}

func cloneRows(t *table.Table) []table.Row {
	rows := make([]table.Row, t.Len())
	for i := range rows {
		src := t.Row(i)
		r := make(table.Row, len(src))
		copy(r, src)
		rows[i] = r
	}
	return rows
}

// Coverage reports which canonical inventory names have no business with the
// same canonical name.
func Coverage(businessNames, inventoryNames []string) domain.Coverage {
	known := make(map[string]struct{}, len(businessNames))
	for _, n := range businessNames {
		known[n] = struct{}{}
	}

	seen := make(map[string]struct{}, len(inventoryNames))
	report := domain.Coverage{Unmatched: []string{}}
	for _, n := range inventoryNames {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		report.InventoryNames++
		if _, ok := known[n]; ok {
			report.Matched++
		} else {
			report.Unmatched = append(report.Unmatched, n)
		}
	}
	return report
}
