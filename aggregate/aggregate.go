package aggregate

import (
	"github.com/samber/lo"
	"golang.org/x/exp/maps"

	"github.com/aquasecurity/psirt-checker/advisory"
)

// Row is one advisory with the platforms it was reported for. Every row of a
// Table has the same AffectedPlatforms keys.
type Row struct {
	advisory.Record
	AffectedPlatforms map[string]bool `json:"affected_platforms"`
}

// Table is the aggregate of all lookups keyed by advisory ID.
type Table struct {
	Platforms []string
	Rows      map[string]*Row
	ids       []string
}

// Build merges the per-device advisories. When the same advisory ID is
// reported more than once, the shared fields of the last occurrence win.
// Failed lookups carry no advisories and only contribute their platform.
func Build(results []advisory.PlatformResult) *Table {
	platforms := lo.Uniq(lo.Map(results, func(r advisory.PlatformResult, _ int) string {
		return r.Platform
	}))
	template := lo.SliceToMap(platforms, func(p string) (string, bool) {
		return p, false
	})

	t := &Table{
		Platforms: platforms,
		Rows:      map[string]*Row{},
	}
	for _, result := range results {
		for _, adv := range result.Advisories {
			row, ok := t.Rows[adv.AdvisoryID]
			if !ok {
				row = &Row{AffectedPlatforms: maps.Clone(template)}
				t.Rows[adv.AdvisoryID] = row
				t.ids = append(t.ids, adv.AdvisoryID)
			}
			row.Record = adv
			row.AffectedPlatforms[result.Platform] = true
		}
	}
	return t
}

// IDs returns the advisory IDs in the order they were first seen.
func (t *Table) IDs() []string {
	return append([]string(nil), t.ids...)
}

// Affected returns the platforms flagged for the advisory, in table order.
func (t *Table) Affected(id string) []string {
	row, ok := t.Rows[id]
	if !ok {
		return nil
	}
	return lo.Filter(t.Platforms, func(p string, _ int) bool {
		return row.AffectedPlatforms[p]
	})
}
