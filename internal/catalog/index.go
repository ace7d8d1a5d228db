// Package catalog holds the immutable canonical service-and-SKU index and
// the three-tier matcher that places installed products in it.
package catalog

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
)

// Index is the in-memory canonical catalog, built once from catalog rows and
// read-only thereafter. Safe for concurrent readers.
type Index struct {
	entries    map[string][]model.CatalogEntry // family -> entries
	families   []string                        // sorted, longest-first for matching
	byCategory map[string]string               // upper(category) -> family
	aliases    map[string]string               // upper(family alias) -> family (tier 1)
	keywords   map[string]string               // upper(keyword fragment) -> family (tier 2)
}

// BuildIndex constructs the catalog index. Rows missing a product family or
// service name are skipped with a warning; reference data never aborts a run.
func BuildIndex(rows []model.CatalogRow) *Index {
	ix := &Index{
		entries:    make(map[string][]model.CatalogEntry),
		byCategory: make(map[string]string),
		aliases:    make(map[string]string),
		keywords:   make(map[string]string),
	}

	for i, row := range rows {
		family := strings.ToUpper(strings.TrimSpace(row.ProductFamily))
		if family == "" || strings.TrimSpace(row.ServiceName) == "" {
			zap.L().Warn("catalog: skipping row with missing family or service name",
				zap.Int("row", i),
			)
			continue
		}

		ix.entries[family] = append(ix.entries[family], model.CatalogEntry{
			ProductFamily:   family,
			Category:        row.Category,
			ServiceName:     row.ServiceName,
			ServiceType:     row.ServiceType,
			SKUCodes:        row.SKUCodes,
			CreditCost:      row.CreditCost,
			ServicePriority: row.ServicePriority,
		})

		if cat := strings.ToUpper(strings.TrimSpace(row.Category)); cat != "" {
			// First family wins per category; families are presented to the
			// builder in catalog order, ties resolved below after sorting.
			if existing, ok := ix.byCategory[cat]; !ok || family < existing {
				ix.byCategory[cat] = family
			}
		}

		for _, al := range row.Aliases {
			ix.RegisterAlias(al, family)
		}
		for _, kw := range row.Keywords {
			ix.RegisterKeyword(kw, family)
		}
	}

	for family := range ix.entries {
		ix.families = append(ix.families, family)
	}
	// Longest family name first so "STORAGE ARRAY" wins over "STORAGE";
	// alphabetical within a length for determinism.
	sort.Slice(ix.families, func(i, j int) bool {
		if len(ix.families[i]) != len(ix.families[j]) {
			return len(ix.families[i]) > len(ix.families[j])
		}
		return ix.families[i] < ix.families[j]
	})

	for kw, family := range builtinKeywords {
		if _, ok := ix.entries[family]; ok {
			ix.RegisterKeyword(kw, family)
		}
	}

	return ix
}

// RegisterAlias adds an alternate name for a product family. Aliases match
// at the exact-keyword tier (confidence 100).
func (ix *Index) RegisterAlias(alias, family string) {
	alias = strings.ToUpper(strings.TrimSpace(alias))
	family = strings.ToUpper(strings.TrimSpace(family))
	if alias == "" || family == "" {
		return
	}
	ix.aliases[alias] = family
}

// RegisterKeyword adds a curated dictionary fragment (model numbers and the
// like) for a family. Keywords match at the dictionary tier (confidence 85).
func (ix *Index) RegisterKeyword(keyword, family string) {
	keyword = strings.ToUpper(strings.TrimSpace(keyword))
	family = strings.ToUpper(strings.TrimSpace(family))
	if keyword == "" || family == "" {
		return
	}
	ix.keywords[keyword] = family
}

// Families returns all known product families, longest name first.
func (ix *Index) Families() []string {
	out := make([]string, len(ix.families))
	copy(out, ix.families)
	return out
}

// EntriesFor returns the catalog entries for a family ordered by declared
// service priority (ascending) then service name.
func (ix *Index) EntriesFor(family string) []model.CatalogEntry {
	entries := ix.entries[strings.ToUpper(family)]
	out := make([]model.CatalogEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ServicePriority != out[j].ServicePriority {
			return out[i].ServicePriority < out[j].ServicePriority
		}
		return out[i].ServiceName < out[j].ServiceName
	})
	return out
}

// Len returns the total number of catalog entries.
func (ix *Index) Len() int {
	n := 0
	for _, e := range ix.entries {
		n += len(e)
	}
	return n
}
