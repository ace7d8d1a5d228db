// Package engine orchestrates one batch run: a sequential account-resolution
// pass over all source rows, then a bounded-parallel pass that matches,
// classifies, scores, and assembles recommendations per product.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-engine/internal/catalog"
	"github.com/sells-group/lead-engine/internal/config"
	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/normalize"
	"github.com/sells-group/lead-engine/internal/recommend"
	"github.com/sells-group/lead-engine/internal/resolver"
	"github.com/sells-group/lead-engine/internal/risk"
	"github.com/sells-group/lead-engine/internal/scorer"
)

const defaultWorkers = 4

// Engine runs the full pipeline over staged source rows. The catalog index
// and scoring rules are fixed at construction; the resolver accumulates
// identity state across Run calls so incremental batches keep merging into
// the same account graph.
type Engine struct {
	res     *resolver.Resolver
	index   *catalog.Index
	matcher *catalog.Matcher
	sc      *scorer.Scorer
	workers int
	asOf    time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithAsOf fixes the as-of date all lifecycle gaps are computed against.
// Batches are reproducible only when the caller injects this.
func WithAsOf(t time.Time) Option {
	return func(e *Engine) { e.asOf = t }
}

// WithWorkers overrides the parallel-pass worker bound.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithResolver substitutes a pre-seeded resolver.
func WithResolver(r *resolver.Resolver) Option {
	return func(e *Engine) { e.res = r }
}

// New creates an Engine over a built catalog index, wired from config.
func New(index *catalog.Index, cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = &config.Config{}
	}

	norm := normalize.NewNormalizer()
	if len(cfg.Resolver.NameSuffixes) > 0 {
		norm = normalize.NewNormalizerWithSuffixes(cfg.Resolver.NameSuffixes)
	}
	threshold := cfg.Resolver.FuzzyThreshold
	if threshold <= 0 {
		threshold = resolver.DefaultFuzzyThreshold
	}

	e := &Engine{
		res:     resolver.NewWith(norm, normalize.NewSimilarity(), threshold),
		index:   index,
		matcher: catalog.NewMatcher(index),
		sc:      scorer.New(cfg.Scoring),
		workers: cfg.Engine.Workers,
	}
	if e.workers <= 0 {
		e.workers = defaultWorkers
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the pipeline over one batch. Bad rows never abort the run;
// they are repaired with deterministic substitutions and carried through.
func (e *Engine) Run(ctx context.Context, batch model.Batch) (*model.BatchResult, error) {
	asOf := e.asOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	// Pass 1: sequential account resolution. Later rows may upgrade
	// accounts created by earlier ones, so ordering is part of the contract.
	products := e.resolveProducts(batch.Products)
	opps := e.resolveOpportunities(batch.Opportunities)
	projects := e.resolveProjects(batch.Projects)

	// A late row can fold an earlier placeholder into a named account.
	// Collapse any keys that merged away before anything downstream reads them.
	for i := range products {
		products[i].AccountKey = e.res.CanonicalKey(products[i].AccountKey)
	}
	for i := range opps {
		opps[i].accountKey = e.res.CanonicalKey(opps[i].accountKey)
	}
	for i := range projects {
		projects[i].accountKey = e.res.CanonicalKey(projects[i].accountKey)
	}

	aggregates := e.aggregate(products, opps, projects, asOf)

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "engine: batch canceled after resolution pass")
	}

	// Pass 2: bounded-parallel match/classify/score/recommend. Everything
	// read here is immutable; results land in index-addressed slices so
	// output order never depends on goroutine completion order.
	matches := make([]model.MatchResult, len(products))
	productLeads := make([]*model.Lead, len(products))
	productRecs := make([][]model.Recommendation, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range products {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			p := &products[i]
			p.ProductFamily = e.matcher.ClassifyFamily(p.Description, p.Platform)
			p.Risk = risk.ClassifyProduct(*p, asOf)
			matches[i] = e.matcher.Match(p.Serial, p.Description, p.Platform)

			leadType, ok := leadTypeFor(*p)
			if !ok {
				return nil
			}
			lead := e.scoreProductLead(*p, leadType, aggregates[p.AccountKey], asOf)
			productLeads[i] = &lead
			productRecs[i] = recommend.Assemble(lead, matches[i], p.Risk, e.index)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "engine: parallel pass")
	}

	result := &model.BatchResult{
		AsOf:     asOf,
		Accounts: e.res.Accounts(),
		Products: products,
		Matches:  matches,
		Counters: model.BatchCounters{
			RowsIn:          len(batch.Products) + len(batch.Opportunities) + len(batch.Projects),
			AccountsCreated: e.res.Created(),
			AccountsMerged:  e.res.Merged(),
			LeadsByPriority: make(map[model.Priority]int),
		},
	}

	for i := range products {
		if matches[i].Actionable() {
			result.Counters.ProductsMatched++
		}
		if productLeads[i] != nil {
			result.Leads = append(result.Leads, *productLeads[i])
			result.Recommendations = append(result.Recommendations, productRecs[i]...)
		}
	}

	// Open opportunities become service-attach leads: pipeline hardware with
	// no services on it yet. No catalog match exists for them, so they carry
	// no recommendations.
	for _, o := range opps {
		if !o.row.Open {
			continue
		}
		result.Leads = append(result.Leads, e.scoreOpportunityLead(o, aggregates[o.accountKey], asOf))
	}

	for _, lead := range result.Leads {
		result.Counters.LeadsByPriority[lead.Priority]++
	}

	zap.L().Info("engine: batch complete",
		zap.Time("as_of", asOf),
		zap.Int("rows_in", result.Counters.RowsIn),
		zap.Int("accounts", len(result.Accounts)),
		zap.Int("accounts_merged", result.Counters.AccountsMerged),
		zap.Int("products_matched", result.Counters.ProductsMatched),
		zap.Int("leads", len(result.Leads)),
	)

	return result, nil
}

// resolvedOpp pairs an opportunity row with its synthetic key and account.
type resolvedOpp struct {
	key        string
	accountKey int64
	row        model.OpportunityRow
}

// resolvedProject pairs a project row with its account.
type resolvedProject struct {
	accountKey int64
	row        model.ProjectRow
}

// resolveProducts resolves every product row's account and assigns unique
// product keys: the serial when unique, otherwise a synthetic key tied to
// the row's position so duplicates are preserved rather than dropped.
func (e *Engine) resolveProducts(rows []model.ProductRow) []model.InstalledProduct {
	products := make([]model.InstalledProduct, len(rows))
	seen := make(map[string]bool, len(rows))

	for i, row := range rows {
		acct := e.res.Resolve(row.Account)

		key := row.Serial
		switch {
		case key == "":
			key = syntheticRowKey(i)
		case seen[key]:
			key = syntheticDupKey(key, i)
			zap.L().Warn("engine: duplicate serial, synthesized key",
				zap.String("serial", row.Serial),
				zap.String("key", key),
			)
		}
		seen[key] = true

		products[i] = model.InstalledProduct{
			Serial:        key,
			Description:   row.Description,
			Platform:      row.Platform,
			SupportStatus: row.SupportStatus,
			EOLDate:       row.EOLDate,
			EOSDate:       row.EOSDate,
			ServiceStart:  row.ServiceStart,
			ServiceEnd:    row.ServiceEnd,
			AccountKey:    acct.Key,
		}
	}
	return products
}

func (e *Engine) resolveOpportunities(rows []model.OpportunityRow) []resolvedOpp {
	opps := make([]resolvedOpp, len(rows))
	seen := make(map[string]bool, len(rows))

	for i, row := range rows {
		acct := e.res.Resolve(row.Account)

		key := row.ID
		switch {
		case key == "":
			key = syntheticRowKey(i)
		case seen[key]:
			key = syntheticDupKey(key, i)
		}
		seen[key] = true

		opps[i] = resolvedOpp{key: key, accountKey: acct.Key, row: row}
	}
	return opps
}

// resolveProjects resolves every project row's account so those references
// join the identity graph even when no product mentions them.
func (e *Engine) resolveProjects(rows []model.ProjectRow) []resolvedProject {
	projects := make([]resolvedProject, len(rows))
	for i, row := range rows {
		acct := e.res.Resolve(row.Account)
		projects[i] = resolvedProject{accountKey: acct.Key, row: row}
	}
	return projects
}

// aggregate computes the per-account historical facts the scorer consumes.
func (e *Engine) aggregate(products []model.InstalledProduct, opps []resolvedOpp, projects []resolvedProject, asOf time.Time) map[int64]model.AccountAggregates {
	agg := make(map[int64]model.AccountAggregates)

	bump := func(key int64, fn func(*model.AccountAggregates)) {
		a := agg[key]
		a.AccountKey = key
		fn(&a)
		agg[key] = a
	}

	for _, p := range products {
		bump(p.AccountKey, func(a *model.AccountAggregates) { a.InstalledBaseSize++ })
	}
	for _, o := range opps {
		if o.row.Open {
			bump(o.accountKey, func(a *model.AccountAggregates) { a.OpenOpportunities++ })
		}
	}

	lastDelivered := make(map[int64]time.Time)
	for _, pr := range projects {
		if !pr.row.Delivered {
			continue
		}
		bump(pr.accountKey, func(a *model.AccountAggregates) { a.DeliveredProjectCount++ })
		if pr.row.EndDate != nil && pr.row.EndDate.After(lastDelivered[pr.accountKey]) {
			lastDelivered[pr.accountKey] = *pr.row.EndDate
		}
	}
	for key, end := range lastDelivered {
		bump(key, func(a *model.AccountAggregates) { a.DaysSinceLastProject = risk.DaysSince(&end, asOf) })
	}

	return agg
}

func (e *Engine) scoreProductLead(p model.InstalledProduct, leadType model.LeadType, agg model.AccountAggregates, asOf time.Time) model.Lead {
	res := e.sc.Score(scorer.Inputs{
		LeadType:             leadType,
		DaysSinceEOL:         risk.DaysSince(p.EOLDate, asOf),
		DaysSinceExpiry:      risk.DaysSince(risk.CoverageEnd(p), asOf),
		InstalledBaseSize:    agg.InstalledBaseSize,
		OpenOpportunities:    agg.OpenOpportunities,
		DaysSinceLastProject: agg.DaysSinceLastProject,
		ProductFamily:        p.ProductFamily,
	})

	return model.Lead{
		Key:          "lead-" + p.Serial,
		Type:         leadType,
		ProductKey:   p.Serial,
		AccountKey:   p.AccountKey,
		Scores:       res.Scores,
		OverallScore: res.Overall,
		Priority:     res.Priority,
		Status:       model.LeadStatusNew,
	}
}

func (e *Engine) scoreOpportunityLead(o resolvedOpp, agg model.AccountAggregates, asOf time.Time) model.Lead {
	family := e.matcher.ClassifyFamily(o.row.ProductLine, "")

	res := e.sc.Score(scorer.Inputs{
		LeadType:             model.LeadServiceGap,
		EstimatedValue:       o.row.EstimatedValue,
		InstalledBaseSize:    agg.InstalledBaseSize,
		OpenOpportunities:    agg.OpenOpportunities,
		DaysSinceLastProject: agg.DaysSinceLastProject,
		ProductFamily:        family,
	})

	lead := model.Lead{
		Key:            "lead-" + o.key,
		Type:           model.LeadServiceGap,
		OpportunityKey: o.key,
		AccountKey:     o.accountKey,
		Scores:         res.Scores,
		OverallScore:   res.Overall,
		Priority:       res.Priority,
		Status:         model.LeadStatusNew,
	}
	if o.row.EstimatedValue != nil {
		lead.EstimatedValue = &model.ValueRange{Min: *o.row.EstimatedValue, Max: *o.row.EstimatedValue}
	}
	return lead
}

// leadTypeFor derives the sales action a product warrants from its risk:
// long-dead hardware gets a refresh, lapsed coverage gets a renewal, and a
// product with no coverage record at all is a service gap. Covered products
// produce no lead.
func leadTypeFor(p model.InstalledProduct) (model.LeadType, bool) {
	switch p.Risk {
	case model.RiskCritical:
		return model.LeadHardwareRefresh, true
	case model.RiskHigh:
		return model.LeadRenewal, true
	case model.RiskUnknown:
		return model.LeadServiceGap, true
	default:
		if p.ServiceEnd == nil && p.EOSDate == nil {
			return model.LeadServiceGap, true
		}
		return "", false
	}
}

func syntheticRowKey(rowIndex int) string {
	return fmt.Sprintf("row-%d", rowIndex)
}

func syntheticDupKey(natural string, rowIndex int) string {
	return fmt.Sprintf("%s#%d", natural, rowIndex)
}
