// Package pipeline runs the one-shot shopping search: the agent price search
// plus cashback and credit card lookups in parallel, merged with URL checks
// into a single report.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/paihanhuang/shopping-agent/internal/cards"
	"github.com/paihanhuang/shopping-agent/internal/cashback"
	"github.com/paihanhuang/shopping-agent/internal/logger"
	"github.com/paihanhuang/shopping-agent/internal/report"
	"github.com/paihanhuang/shopping-agent/internal/search"
	"github.com/paihanhuang/shopping-agent/internal/verify"
)

// defaultRetailers are the lookup targets for the enrichment sections.
var defaultRetailers = []string{"Amazon", "Best Buy", "Walmart", "Target", "Costco", "B&H Photo", "Newegg"}

// Result carries the merged report plus its individual sections for callers
// that want them separately.
type Result struct {
	Query    string
	Category string
	Report   string
	Cashback string
	Cards    string
	Merged   string
}

// Pipeline fans a query out to the agent and the local knowledge bases.
type Pipeline struct {
	agent search.Agent
	kb    *cashback.KnowledgeBase
}

func New(agent search.Agent, kb *cashback.KnowledgeBase) *Pipeline {
	return &Pipeline{agent: agent, kb: kb}
}

// Run executes the agent search and both enrichment lookups concurrently,
// then merges everything into one report. The enrichment sections carry their
// own headings so downstream report parsing only sees the retailer sections.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	category := cashback.DetectCategory(query)
	logger.Debug("Detected category %q for query %q", category, query)

	res := &Result{Query: query, Category: category}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep, err := p.agent.Search(ctx, query)
		if err != nil {
			return err
		}
		res.Report = rep
		return nil
	})
	g.Go(func() error {
		res.Cashback = p.kb.Lookup(defaultRetailers, category)
		return nil
	})
	g.Go(func() error {
		res.Cards = cards.Recommend(defaultRetailers)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search pipeline failed for %q: %w", query, err)
	}

	res.Merged = p.merge(res)
	return res, nil
}

func (p *Pipeline) merge(res *Result) string {
	var b strings.Builder
	b.WriteString(res.Report)

	if checks := urlChecks(res.Report, res.Query); checks != "" {
		b.WriteString("\n\n**URL Check**\n")
		b.WriteString(checks)
	}

	b.WriteString("\n\n**Cashback Reference**\n")
	b.WriteString(res.Cashback)
	b.WriteString("\n\n")
	b.WriteString(p.kb.CategoryGuidanceFor(res.Category))

	b.WriteString("\n\n**Credit Card Picks**\n")
	b.WriteString(res.Cards)

	if links := verify.SearchLinks(defaultRetailers, res.Query); links != "" {
		b.WriteString("\n\n**Search Links**\n")
		b.WriteString(links)
	}
	return b.String()
}

// urlChecks validates every product URL the agent reported.
func urlChecks(rep, query string) string {
	var lines []string
	for _, o := range report.Parse(rep) {
		if o.ProductURL == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", o.Retailer, verify.ValidateURL(o.ProductURL, query)))
	}
	return strings.Join(lines, "\n")
}
