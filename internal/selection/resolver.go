// Package selection maps caller preferences onto a concrete model id.
//
// A Resolver combines a ScoreTable (the allow-list with per-model ratings)
// with a Catalog (the models an upstream actually serves and their limits).
// The same Resolver backs every strategy; only the catalog and the optional
// capability flag differ between providers.
package selection

import (
	"context"
	"log/slog"
	"strings"
)

// BaseWeight scales each priority-weighted score term.
const BaseWeight = 100.0

// Hint is an advisory model-name fragment.
type Hint struct {
	Name string
}

// Preferences are the per-request model preferences. Zero values are unset.
type Preferences struct {
	Model                    string
	Hints                    []Hint
	CostPriority             float64
	SpeedPriority            float64
	IntelligencePriority     float64
	ExtendedThinkingRequired bool
}

// IsEmpty reports whether no preference field is set.
func (p Preferences) IsEmpty() bool {
	return p.Model == "" &&
		len(p.Hints) == 0 &&
		p.CostPriority == 0 &&
		p.SpeedPriority == 0 &&
		p.IntelligencePriority == 0 &&
		!p.ExtendedThinkingRequired
}

// RequestParams carries the request size used for the context check.
// PromptLength is a character count, used as a stand-in for tokens.
type RequestParams struct {
	PromptLength int
	MaxTokens    int
}

// RequiredContext returns the context window the request needs.
func (p RequestParams) RequiredContext() int {
	return p.PromptLength + p.MaxTokens
}

// Resolver selects models. It is safe for concurrent use.
type Resolver struct {
	name          string
	scores        *ScoreTable
	catalog       Catalog
	defaultModel  string
	capability    string
	thinkingBonus bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithName labels the resolver in log output.
func WithName(name string) Option {
	return func(r *Resolver) { r.name = name }
}

// WithCapabilityFlag enables the extended-thinking filter using flag as the
// capability a model must carry. Without it, ExtendedThinkingRequired only
// disables the no-preference shortcut.
func WithCapabilityFlag(flag string) Option {
	return func(r *Resolver) { r.capability = flag }
}

// WithExtendedThinkingBonus turns the extended-thinking filter into a
// ranking preference: models without the capability stay eligible and models
// with it gain BaseWeight when extended thinking is requested.
func WithExtendedThinkingBonus() Option {
	return func(r *Resolver) { r.thinkingBonus = true }
}

// NewResolver validates its inputs and returns a resolver.
func NewResolver(scores *ScoreTable, catalog Catalog, defaultModel string, opts ...Option) (*Resolver, error) {
	if scores == nil {
		return nil, invalidConfig("models", "score table is required")
	}
	if catalog == nil {
		return nil, invalidConfig("catalog", "catalog is required")
	}
	defaultModel = strings.TrimSpace(defaultModel)
	if defaultModel == "" {
		return nil, invalidConfig("default_model", "default model is required")
	}

	r := &Resolver{
		name:         "default",
		scores:       scores,
		catalog:      catalog,
		defaultModel: defaultModel,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.thinkingBonus && r.capability == "" {
		return nil, invalidConfig("thinking_bonus", "requires a capability flag")
	}
	return r, nil
}

// DefaultModel returns the fallback model id.
func (r *Resolver) DefaultModel() string {
	return r.defaultModel
}

// Scores returns the resolver's score table.
func (r *Resolver) Scores() *ScoreTable {
	return r.scores
}

// Select returns the model id to use for a request. The only error it
// returns is a catalog failure; every other dead end yields the default.
func (r *Resolver) Select(ctx context.Context, prefs Preferences, params RequestParams) (string, error) {
	if prefs.IsEmpty() {
		return r.defaultModel, nil
	}

	models, err := r.catalog.Models(ctx)
	if err != nil {
		return "", err
	}

	if model := strings.TrimSpace(prefs.Model); model != "" && r.isKnown(model, models) {
		return model, nil
	}

	eligible := r.eligible(models, prefs, params)
	if len(eligible) == 0 {
		slog.Debug("no eligible model, using default",
			"resolver", r.name,
			"required_context", params.RequiredContext(),
			"default_model", r.defaultModel,
		)
		return r.defaultModel, nil
	}

	candidates := applyHints(eligible, prefs.Hints)

	best := ""
	bestScore := 0.0
	for i, m := range candidates {
		score := r.score(m, prefs)
		if i == 0 || score > bestScore {
			best = m.ID
			bestScore = score
		}
	}
	if best == "" {
		return r.defaultModel, nil
	}
	return best, nil
}

func (r *Resolver) isKnown(id string, models []ModelDescriptor) bool {
	if !r.scores.Has(id) {
		return false
	}
	for _, m := range models {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (r *Resolver) eligible(models []ModelDescriptor, prefs Preferences, params RequestParams) []ModelDescriptor {
	required := params.RequiredContext()
	out := make([]ModelDescriptor, 0, len(models))
	for _, m := range models {
		if !r.scores.Has(m.ID) {
			continue
		}
		if required > m.ContextLength {
			continue
		}
		if prefs.ExtendedThinkingRequired && r.capability != "" && !r.thinkingBonus && !m.HasCapability(r.capability) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// applyHints narrows candidates to the matches of the first hint that
// matches anything. With no matching hint the full set is returned.
func applyHints(eligible []ModelDescriptor, hints []Hint) []ModelDescriptor {
	for _, h := range hints {
		needle := strings.ToLower(h.Name)
		if needle == "" {
			continue
		}
		var matched []ModelDescriptor
		for _, m := range eligible {
			if strings.Contains(strings.ToLower(m.ID), needle) {
				matched = append(matched, m)
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}
	return eligible
}

func (r *Resolver) score(m ModelDescriptor, prefs Preferences) float64 {
	s, ok := r.scores.Get(m.ID)
	if !ok {
		return -1
	}
	total := 0.0
	if prefs.CostPriority != 0 {
		total += s.CostScore * prefs.CostPriority * BaseWeight
	}
	if prefs.SpeedPriority != 0 {
		total += s.SpeedScore * prefs.SpeedPriority * BaseWeight
	}
	if prefs.IntelligencePriority != 0 {
		total += s.IntelligenceScore * prefs.IntelligencePriority * BaseWeight
	}
	if r.thinkingBonus && prefs.ExtendedThinkingRequired && m.HasCapability(r.capability) {
		total += BaseWeight
	}
	return total
}
