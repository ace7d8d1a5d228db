package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-engine/internal/model"
)

func testRows() []model.CatalogRow {
	return []model.CatalogRow{
		{ProductFamily: "COMPUTE", Category: "Compute", ServiceName: "Server Health Check", ServiceType: "assessment", SKUCodes: []string{"HA124A1"}, ServicePriority: 1},
		{ProductFamily: "COMPUTE", Category: "Compute", ServiceName: "Firmware Update Service", ServiceType: "maintenance", SKUCodes: []string{"HA124A2"}, ServicePriority: 2},
		{ProductFamily: "STORAGE", Category: "Storage", ServiceName: "Array Assessment", ServiceType: "assessment", SKUCodes: []string{"HA125A1"}, ServicePriority: 1},
		{ProductFamily: "NETWORK", Category: "Networking", ServiceName: "Switch Audit", ServiceType: "assessment", ServicePriority: 3},
	}
}

func testIndex() *Index {
	return BuildIndex(testRows())
}

func TestMatchExactKeywordTier(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testIndex())
	got := m.Match("p1", "Compute rack bundle with support", "")

	require.NotNil(t, got.ProductFamily)
	assert.Equal(t, "COMPUTE", *got.ProductFamily)
	assert.Equal(t, model.ConfidenceExact, got.Confidence)
	assert.Equal(t, model.MatchExactKeyword, got.Method)
}

func TestMatchRegisteredAlias(t *testing.T) {
	t.Parallel()

	ix := testIndex()
	ix.RegisterAlias("ProLiant Server", "COMPUTE")
	m := NewMatcher(ix)

	got := m.Match("p1", "HP ProLiant Server bundle", "")
	require.NotNil(t, got.ProductFamily)
	assert.Equal(t, "COMPUTE", *got.ProductFamily)
	assert.Equal(t, model.ConfidenceExact, got.Confidence)
}

func TestMatchKeywordDictionaryTier(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testIndex())
	got := m.Match("p1", "HP DL360p Gen8 8-SFF CTO Server", "")

	require.NotNil(t, got.ProductFamily)
	assert.Equal(t, "COMPUTE", *got.ProductFamily)
	assert.Equal(t, model.ConfidenceDictionary, got.Confidence)
	assert.Equal(t, model.MatchKeywordDict, got.Method)
}

func TestMatchCategoryTier(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testIndex())
	got := m.Match("p1", "mystery appliance model XYZ", "Networking")

	require.NotNil(t, got.ProductFamily)
	assert.Equal(t, "NETWORK", *got.ProductFamily)
	assert.Equal(t, model.ConfidenceCategory, got.Confidence)
	assert.Equal(t, model.MatchCategory, got.Method)
}

func TestMatchNoTier(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testIndex())
	got := m.Match("p1", "mystery appliance", "Mainframe")

	assert.Nil(t, got.ProductFamily)
	assert.Equal(t, 0, got.Confidence)
	assert.Equal(t, model.MatchNone, got.Method)
	assert.False(t, got.Actionable())
}

func TestMatchConfidenceValues(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testIndex())
	descs := []struct{ desc, hint string }{
		{"Storage expansion shelf", ""},
		{"3PAR 8200 two-node base", ""},
		{"unknown", "Compute"},
		{"unknown", ""},
	}

	allowed := map[int]bool{0: true, 70: true, 85: true, 100: true}
	for _, d := range descs {
		got := m.Match("p", d.desc, d.hint)
		assert.True(t, allowed[got.Confidence], "confidence %d for %q", got.Confidence, d.desc)
	}
}

func TestClassifyFamilyFallsBackToOther(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testIndex())
	assert.Equal(t, "COMPUTE", m.ClassifyFamily("DL380 Gen10", ""))
	assert.Equal(t, model.FamilyOther, m.ClassifyFamily("mystery appliance", ""))
}

func TestBuildIndexSkipsBadRows(t *testing.T) {
	t.Parallel()

	rows := append(testRows(),
		model.CatalogRow{ProductFamily: "", ServiceName: "Orphan"},
		model.CatalogRow{ProductFamily: "COMPUTE", ServiceName: ""},
	)
	ix := BuildIndex(rows)
	assert.Equal(t, 4, ix.Len())
}

func TestEntriesForOrdering(t *testing.T) {
	t.Parallel()

	ix := testIndex()
	entries := ix.EntriesFor("compute")
	require.Len(t, entries, 2)
	assert.Equal(t, "Server Health Check", entries[0].ServiceName)
	assert.Equal(t, "Firmware Update Service", entries[1].ServiceName)
}

func TestCatalogRowAliasesRegistered(t *testing.T) {
	t.Parallel()

	rows := testRows()
	rows[0].Aliases = []string{"ProLiant Server"}
	m := NewMatcher(BuildIndex(rows))

	got := m.Match("p1", "HP ProLiant Server bundle", "")
	require.NotNil(t, got.ProductFamily)
	assert.Equal(t, "COMPUTE", *got.ProductFamily)
	assert.Equal(t, model.ConfidenceExact, got.Confidence)
	assert.Equal(t, model.MatchExactKeyword, got.Method)
}

func TestCatalogRowKeywordsRegistered(t *testing.T) {
	t.Parallel()

	rows := testRows()
	rows[2].Keywords = []string{"EVA8400"}
	m := NewMatcher(BuildIndex(rows))

	got := m.Match("p1", "HP EVA8400 dual controller", "")
	require.NotNil(t, got.ProductFamily)
	assert.Equal(t, "STORAGE", *got.ProductFamily)
	assert.Equal(t, model.ConfidenceDictionary, got.Confidence)
}
