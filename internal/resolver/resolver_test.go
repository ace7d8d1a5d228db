package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/normalize"
)

func TestResolveByExternalID(t *testing.T) {
	t.Parallel()

	r := New()
	a := r.Resolve(model.AccountRef{Name: "Apple Inc", ExternalID: "123456789", Scheme: model.SchemeCustomer9})
	b := r.Resolve(model.AccountRef{Name: "Totally Different", ExternalID: "123456789", Scheme: model.SchemeCustomer9})

	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, 1, r.Created())
}

func TestResolveByNormalizedName(t *testing.T) {
	t.Parallel()

	r := New()
	a := r.Resolve(model.AccountRef{Name: "Apple Inc."})
	b := r.Resolve(model.AccountRef{Name: "APPLE INC"})

	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, "apple", a.NormalizedName)
	assert.Equal(t, 1, r.Created())
}

func TestResolveTerritoryRestriction(t *testing.T) {
	t.Parallel()

	r := New()
	a := r.Resolve(model.AccountRef{Name: "Acme Corp", Territory: "56088"})
	b := r.Resolve(model.AccountRef{Name: "Acme Corp", Territory: "56180"})
	c := r.Resolve(model.AccountRef{Name: "Acme Corp"}) // no territory: matches first

	assert.NotEqual(t, a.Key, b.Key, "same name in different territories stays distinct")
	assert.Equal(t, a.Key, c.Key)
}

func TestResolveFuzzy(t *testing.T) {
	t.Parallel()

	r := New()
	a := r.Resolve(model.AccountRef{Name: "Applied Materials Inc"})
	b := r.Resolve(model.AccountRef{Name: "Applied Materiels Inc"}) // typo

	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, 1, r.Created())
}

// fixedSimilarity always returns the same score; used for threshold boundary tests.
type fixedSimilarity struct{ score int }

func (f fixedSimilarity) Score(_, _ string) int { return f.score }

func TestResolveFuzzyThresholdBoundary(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		score     int
		wantMerge bool
	}{
		{84, false},
		{85, true},
		{86, true},
	} {
		r := NewWith(normalize.NewNormalizer(), fixedSimilarity{tt.score}, DefaultFuzzyThreshold)
		a := r.Resolve(model.AccountRef{Name: "First Company"})
		b := r.Resolve(model.AccountRef{Name: "Second Company"})

		if tt.wantMerge {
			assert.Equal(t, a.Key, b.Key, "score %d should merge", tt.score)
		} else {
			assert.NotEqual(t, a.Key, b.Key, "score %d should not merge", tt.score)
		}
	}
}

func TestResolvePlaceholderUpgrade(t *testing.T) {
	t.Parallel()

	r := New()

	// First reference knows the customer only by territory code.
	a := r.Resolve(model.AccountRef{ExternalID: "56180", Scheme: model.SchemeTerritory5, Territory: "56180"})
	assert.Equal(t, "56180", a.Name)

	// A later row carries the real name for the same identifier.
	b := r.Resolve(model.AccountRef{
		Name:       "Applied Materials, Inc.",
		ExternalID: "56180",
		Scheme:     model.SchemeTerritory5,
	})

	require.Equal(t, a.Key, b.Key)
	assert.Equal(t, "Applied Materials, Inc.", b.Name)
	assert.Equal(t, "applied materials", b.NormalizedName)
	assert.Equal(t, 1, r.Created())
	assert.Equal(t, 1, r.Merged())

	// The upgraded name is found by later name-only rows.
	c := r.Resolve(model.AccountRef{Name: "Applied Materials Inc"})
	assert.Equal(t, a.Key, c.Key)
}

func TestResolveUpgradeMergesIntoExistingName(t *testing.T) {
	t.Parallel()

	r := New()

	// A named account exists before the placeholder is ever created.
	named := r.Resolve(model.AccountRef{Name: "Applied Materials"})
	ph := r.Resolve(model.AccountRef{ExternalID: "56180", Scheme: model.SchemeTerritory5})
	require.NotEqual(t, named.Key, ph.Key)

	// The row that names the placeholder collides with the existing account:
	// the placeholder must fold into it, not become a duplicate identity.
	got := r.Resolve(model.AccountRef{
		Name:       "Applied Materials, Inc.",
		ExternalID: "56180",
		Scheme:     model.SchemeTerritory5,
	})
	assert.Equal(t, named.Key, got.Key)
	assert.True(t, got.HasIdentifier(model.SchemeTerritory5, "56180"))
	assert.Equal(t, 1, r.Merged())

	accounts := r.Accounts()
	require.Len(t, accounts, 1)

	// Name rows and ID rows land on the same account afterwards.
	byName := r.Resolve(model.AccountRef{Name: "Applied Materials Inc"})
	byID := r.Resolve(model.AccountRef{ExternalID: "56180", Scheme: model.SchemeTerritory5})
	assert.Equal(t, byName.Key, byID.Key)

	// Stale holders of the placeholder's key are redirected.
	assert.Equal(t, named.Key, r.CanonicalKey(ph.Key))
	assert.Equal(t, named.Key, r.CanonicalKey(named.Key))
}

func TestResolveUpgradeRespectsTerritoryOnMerge(t *testing.T) {
	t.Parallel()

	r := New()

	// Same name in another territory must stay distinct through an upgrade.
	other := r.Resolve(model.AccountRef{Name: "Acme Corp", Territory: "56088"})
	ph := r.Resolve(model.AccountRef{ExternalID: "900000777", Scheme: model.SchemeCustomer9, Territory: "56180"})

	got := r.Resolve(model.AccountRef{
		Name:       "Acme Corp",
		ExternalID: "900000777",
		Scheme:     model.SchemeCustomer9,
		Territory:  "56180",
	})
	assert.Equal(t, ph.Key, got.Key)
	assert.NotEqual(t, other.Key, got.Key)
	require.Len(t, r.Accounts(), 2)
}

func TestResolveOrderIndependentConvergence(t *testing.T) {
	t.Parallel()

	idFirst := New()
	idFirst.Resolve(model.AccountRef{ExternalID: "56088", Scheme: model.SchemeTerritory5})
	idFirst.Resolve(model.AccountRef{Name: "Apple Inc", ExternalID: "56088", Scheme: model.SchemeTerritory5})

	nameFirst := New()
	nameFirst.Resolve(model.AccountRef{Name: "Apple Inc", ExternalID: "56088", Scheme: model.SchemeTerritory5})
	nameFirst.Resolve(model.AccountRef{ExternalID: "56088", Scheme: model.SchemeTerritory5})

	wantOne := func(r *Resolver) model.Account {
		accounts := r.Accounts()
		require.Len(t, accounts, 1)
		return accounts[0]
	}

	a := wantOne(idFirst)
	b := wantOne(nameFirst)
	assert.Equal(t, "apple", a.NormalizedName)
	assert.Equal(t, "apple", b.NormalizedName)
	assert.Equal(t, a.ExternalIDs, b.ExternalIDs)
}

func TestResolveGarbageName(t *testing.T) {
	t.Parallel()

	r := New()
	a := r.Resolve(model.AccountRef{})
	assert.Equal(t, model.UnknownAccountName, a.Name)

	// A second fully-unknown reference reuses the sentinel account rather
	// than multiplying placeholders.
	b := r.Resolve(model.AccountRef{})
	assert.Equal(t, a.Key, b.Key)
}

func TestResolveNoFuzzyOnPlaceholders(t *testing.T) {
	t.Parallel()

	r := New()
	a := r.Resolve(model.AccountRef{Territory: "56088"})
	b := r.Resolve(model.AccountRef{Territory: "56180"})

	// Numeric placeholder names must never fuzzy-merge with each other.
	assert.NotEqual(t, a.Key, b.Key)
}

func TestAccountsOrderedByKey(t *testing.T) {
	t.Parallel()

	r := New()
	r.Resolve(model.AccountRef{Name: "Zebra Corp"})
	r.Resolve(model.AccountRef{Name: "Alpha LLC"})
	r.Resolve(model.AccountRef{Name: "Mid Co"})

	accounts := r.Accounts()
	require.Len(t, accounts, 3)
	for i := 1; i < len(accounts); i++ {
		assert.Greater(t, accounts[i].Key, accounts[i-1].Key)
	}
}
