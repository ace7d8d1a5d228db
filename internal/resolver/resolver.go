// Package resolver consolidates customer references from disparate sources
// into unified accounts. It owns the only mutable state in the engine: the
// account index, guarded by a single-writer lock.
package resolver

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/normalize"
)

// DefaultFuzzyThreshold is the minimum 0-100 similarity for two normalized
// names to be considered the same account.
const DefaultFuzzyThreshold = 85

// Resolver deduplicates account references. Resolution uses a four-pass
// cascade, short-circuiting on the first hit:
//  1. Exact external identifier (scheme + value)
//  2. Exact normalized name (restricted by territory when both sides have one)
//  3. Fuzzy normalized-name match at or above the threshold
//  4. Create a new account
type Resolver struct {
	mu        sync.Mutex
	norm      *normalize.Normalizer
	sim       normalize.Similarity
	threshold int

	nextKey    int64
	accounts   []*model.Account
	byExternal map[string]*model.Account
	byName     map[string][]*model.Account // normalized name -> accounts (cache, re-keyed on upgrade)
	canonical  map[int64]int64             // merged-away key -> surviving key

	created int
	merged  int
}

// New creates a Resolver with the default normalizer, similarity metric,
// and fuzzy threshold.
func New() *Resolver {
	return NewWith(normalize.NewNormalizer(), normalize.NewSimilarity(), DefaultFuzzyThreshold)
}

// NewWith creates a Resolver with explicit collaborators.
func NewWith(norm *normalize.Normalizer, sim normalize.Similarity, threshold int) *Resolver {
	return &Resolver{
		norm:       norm,
		sim:        sim,
		threshold:  threshold,
		nextKey:    1,
		byExternal: make(map[string]*model.Account),
		byName:     make(map[string][]*model.Account),
		canonical:  make(map[int64]int64),
	}
}

// Resolve returns the account for the given reference, creating one when no
// existing account matches. Never fails: missing or garbage names are
// replaced with a sentinel before normalization.
func (r *Resolver) Resolve(ref model.AccountRef) *model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := effectiveName(ref)
	normalized := r.norm.Name(name)

	// Pass 1: external identifier.
	if ref.ExternalID != "" && ref.Scheme != "" {
		if acct, ok := r.byExternal[externalKey(ref.Scheme, ref.ExternalID)]; ok {
			acct = r.upgradeIfPlaceholder(acct, name, normalized, ref.Territory)
			zap.L().Debug("resolver: matched by external id",
				zap.String("scheme", ref.Scheme),
				zap.String("external_id", ref.ExternalID),
				zap.Int64("account_key", acct.Key),
			)
			return acct
		}
	}

	// Pass 2: exact normalized name (+territory when both present).
	if acct := r.findByName(normalized, ref.Territory); acct != nil {
		r.attachExternalID(acct, ref)
		zap.L().Debug("resolver: matched by normalized name",
			zap.String("normalized", normalized),
			zap.Int64("account_key", acct.Key),
		)
		return acct
	}

	// Pass 3: fuzzy search across all accounts.
	if acct := r.findFuzzy(normalized); acct != nil {
		r.attachExternalID(acct, ref)
		zap.L().Debug("resolver: matched by fuzzy name",
			zap.String("normalized", normalized),
			zap.Int64("account_key", acct.Key),
		)
		return acct
	}

	// Pass 4: create.
	acct := &model.Account{
		Key:            r.nextKey,
		Name:           name,
		NormalizedName: normalized,
		Territory:      ref.Territory,
	}
	r.nextKey++
	r.created++
	r.accounts = append(r.accounts, acct)
	r.byName[normalized] = append(r.byName[normalized], acct)
	r.attachExternalID(acct, ref)

	zap.L().Debug("resolver: created account",
		zap.String("name", name),
		zap.Int64("account_key", acct.Key),
	)
	return acct
}

// Accounts returns all resolved accounts ordered by key.
func (r *Resolver) Accounts() []model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	return out
}

// CanonicalKey follows merge links from a possibly-stale account key to the
// surviving account's key. Keys that never merged map to themselves. Callers
// holding keys captured mid-resolution must pass them through here once all
// rows are resolved.
func (r *Resolver) CanonicalKey(key int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		next, ok := r.canonical[key]
		if !ok {
			return key
		}
		key = next
	}
}

// Created returns how many accounts this resolver has created.
func (r *Resolver) Created() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created
}

// Merged returns how many placeholder upgrades (identity merges) occurred.
func (r *Resolver) Merged() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.merged
}

// findByName returns the account with the exact normalized name. When both
// the query and a candidate carry a territory, they must agree.
func (r *Resolver) findByName(normalized, territory string) *model.Account {
	if normalized == "" {
		return nil
	}
	for _, acct := range r.byName[normalized] {
		if territory != "" && acct.Territory != "" && acct.Territory != territory {
			continue
		}
		return acct
	}
	return nil
}

// findFuzzy returns the best-scoring account at or above the threshold.
// Accounts are scanned in key order so ties resolve deterministically.
func (r *Resolver) findFuzzy(normalized string) *model.Account {
	if normalized == "" || isPlaceholderName(normalized) {
		return nil
	}

	var best *model.Account
	bestScore := 0
	for _, acct := range r.accounts {
		if acct.NormalizedName == "" || isPlaceholderName(acct.NormalizedName) {
			continue
		}
		score := r.sim.Score(normalized, acct.NormalizedName)
		if score > bestScore {
			bestScore = score
			best = acct
		}
	}
	if bestScore >= r.threshold {
		return best
	}
	return nil
}

// upgradeIfPlaceholder replaces a placeholder name with a real one in place,
// re-keying the name cache so later rows find the upgraded identity. When
// another account already owns the incoming normalized name, the placeholder
// is folded into it instead: two accounts must never share a normalized
// name + territory pair. Returns the surviving account.
func (r *Resolver) upgradeIfPlaceholder(acct *model.Account, name, normalized, territory string) *model.Account {
	if name == "" || name == model.UnknownAccountName || isPlaceholderName(normalized) {
		return acct
	}
	if !isPlaceholderName(acct.NormalizedName) && acct.Name != model.UnknownAccountName {
		return acct
	}

	terr := acct.Territory
	if terr == "" {
		terr = territory
	}
	if existing := r.findByName(normalized, terr); existing != nil && existing != acct {
		r.mergeInto(existing, acct)
		return existing
	}

	old := acct.NormalizedName
	acct.Name = name
	acct.NormalizedName = normalized
	if acct.Territory == "" {
		acct.Territory = territory
	}

	r.byName[old] = removeAccount(r.byName[old], acct)
	if len(r.byName[old]) == 0 {
		delete(r.byName, old)
	}
	r.byName[normalized] = append(r.byName[normalized], acct)
	r.merged++

	zap.L().Debug("resolver: upgraded placeholder account",
		zap.String("old", old),
		zap.String("new", normalized),
		zap.Int64("account_key", acct.Key),
	)
	return acct
}

// mergeInto folds a placeholder account into the account that already owns
// its real name. External identifiers move over, the placeholder leaves the
// index, and its key is recorded so CanonicalKey can redirect stale holders.
func (r *Resolver) mergeInto(dst, src *model.Account) {
	for _, id := range src.ExternalIDs {
		if !dst.HasIdentifier(id.Scheme, id.Value) {
			dst.ExternalIDs = append(dst.ExternalIDs, id)
		}
		r.byExternal[externalKey(id.Scheme, id.Value)] = dst
	}
	if dst.Territory == "" {
		dst.Territory = src.Territory
	}

	r.byName[src.NormalizedName] = removeAccount(r.byName[src.NormalizedName], src)
	if len(r.byName[src.NormalizedName]) == 0 {
		delete(r.byName, src.NormalizedName)
	}
	r.accounts = removeAccount(r.accounts, src)
	r.canonical[src.Key] = dst.Key
	r.merged++

	zap.L().Debug("resolver: merged placeholder account",
		zap.Int64("from_key", src.Key),
		zap.Int64("into_key", dst.Key),
	)
}

// attachExternalID links the reference's identifier to the account.
func (r *Resolver) attachExternalID(acct *model.Account, ref model.AccountRef) {
	if ref.ExternalID == "" || ref.Scheme == "" {
		return
	}
	if acct.HasIdentifier(ref.Scheme, ref.ExternalID) {
		return
	}
	acct.ExternalIDs = append(acct.ExternalIDs, model.ExternalID{
		Scheme: ref.Scheme,
		Value:  ref.ExternalID,
	})
	r.byExternal[externalKey(ref.Scheme, ref.ExternalID)] = acct
}

// effectiveName picks the best available name for a reference, falling back
// to the raw ID or territory string and finally the sentinel.
func effectiveName(ref model.AccountRef) string {
	if name := strings.TrimSpace(ref.Name); name != "" {
		return name
	}
	if ref.ExternalID != "" {
		return ref.ExternalID
	}
	if ref.Territory != "" {
		return ref.Territory
	}
	return model.UnknownAccountName
}

// isPlaceholderName reports whether a normalized name carries no real
// identity: the sentinel, or digits only (territory codes, bare IDs).
func isPlaceholderName(normalized string) bool {
	if normalized == "" || normalized == "unknown account" {
		return true
	}
	for _, r := range normalized {
		if r != ' ' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func externalKey(scheme, value string) string {
	return scheme + "\x00" + value
}

func removeAccount(list []*model.Account, target *model.Account) []*model.Account {
	out := list[:0]
	for _, a := range list {
		if a != target {
			out = append(out, a)
		}
	}
	return out
}
