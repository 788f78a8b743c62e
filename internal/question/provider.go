package question

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/category"
)

// generationPadding is added to remote requests to tolerate parse loss.
const generationPadding = 5

// Provider produces unique questions for a category at a difficulty,
// preferring cache, then the remote generator, then the fallback bank.
// Session-scoped state (the used set) is injected per call so one
// provider serves any number of concurrent sessions.
type Provider struct {
	gen     TextGenerator
	cache   Cache
	bank    *Bank
	catalog *category.Catalog
	logger  zerolog.Logger
}

func NewProvider(gen TextGenerator, cache Cache, bank *Bank, catalog *category.Catalog, logger zerolog.Logger) *Provider {
	return &Provider{
		gen:     gen,
		cache:   cache,
		bank:    bank,
		catalog: catalog,
		logger:  logger.With().Str("component", "question_provider").Logger(),
	}
}

// Generate returns up to count unused questions for the category. The
// boolean result reports whether the fallback bank was used, so the
// transport layer can surface a notice. Generation failures never
// escape this boundary.
func (p *Provider) Generate(ctx context.Context, used *UsedSet, categoryID string, count, difficulty int, overrideName string) ([]Question, bool) {
	if count < 1 {
		return nil, false
	}

	key := CacheKey(categoryID, difficulty)
	if cached, err := p.cache.Get(ctx, key); err == nil {
		unused := filterUnused(cached, used)
		if len(unused) >= count {
			take := unused[:count]
			markAll(used, take)
			generateTotal.WithLabelValues(outcomeCacheHit).Inc()
			return take, false
		}
	}

	name := overrideName
	if name == "" {
		name = p.catalog.DisplayName(categoryID)
	}

	parsed, err := p.fetchRemote(ctx, used, name, count+generationPadding, difficulty)
	if err != nil {
		p.logger.Warn().Err(err).Str("category", categoryID).Msg("generation failed, using fallback bank")
		generateTotal.WithLabelValues(outcomeFallback).Inc()
		return p.bank.Pick(categoryID, count), true
	}

	if err := p.cache.Set(ctx, key, parsed); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("cache store failed")
	}

	if count > len(parsed) {
		count = len(parsed)
	}
	take := parsed[:count]
	markAll(used, take)
	generateTotal.WithLabelValues(outcomeRemote).Inc()
	return take, false
}

// Swap finds one replacement for the current question: first a cached
// unused question for the key, then a single remote generation. The
// boolean result is false when no replacement is available, in which
// case the caller keeps showing the original question.
func (p *Provider) Swap(ctx context.Context, used *UsedSet, categoryID string, current Question, difficulty int) (Question, bool) {
	key := CacheKey(categoryID, difficulty)
	if cached, err := p.cache.Get(ctx, key); err == nil {
		for _, q := range cached {
			if q.Prompt != current.Prompt && !used.Has(q.Prompt) {
				used.Mark(q.Prompt)
				swapTotal.WithLabelValues(outcomeCacheHit).Inc()
				return q, true
			}
		}
	}

	parsed, err := p.fetchRemote(ctx, used, p.catalog.DisplayName(categoryID), 1, difficulty)
	if err != nil {
		p.logger.Warn().Err(err).Str("category", categoryID).Msg("swap generation failed")
		swapTotal.WithLabelValues(outcomeNone).Inc()
		return Question{}, false
	}
	for _, q := range parsed {
		if q.Prompt != current.Prompt {
			used.Mark(q.Prompt)
			swapTotal.WithLabelValues(outcomeRemote).Inc()
			return q, true
		}
	}

	swapTotal.WithLabelValues(outcomeNone).Inc()
	return Question{}, false
}

// Warm pre-generates a pack for the key unless one is already cached.
// It never touches any session's used set; foreground requests must not
// depend on its completion.
func (p *Provider) Warm(ctx context.Context, categoryID string, count, difficulty int) error {
	key := CacheKey(categoryID, difficulty)
	if cached, err := p.cache.Get(ctx, key); err == nil && len(cached) > 0 {
		return nil
	}

	parsed, err := p.fetchRemote(ctx, nil, p.catalog.DisplayName(categoryID), count+generationPadding, difficulty)
	if err != nil {
		return err
	}
	return p.cache.Set(ctx, key, parsed)
}

// fetchRemote calls the generator and parses its response. Zero valid
// records count as a failure.
func (p *Provider) fetchRemote(ctx context.Context, used *UsedSet, categoryName string, count, difficulty int) ([]Question, error) {
	if p.gen == nil {
		return nil, errGeneratorUnavailable
	}

	text, err := p.gen.GenerateText(ctx, GenerateRequest{
		CategoryName: categoryName,
		Difficulty:   DifficultyLabel(difficulty),
		Count:        count,
	})
	if err != nil {
		return nil, err
	}

	var exclude func(string) bool
	if used != nil {
		exclude = used.Has
	}
	parsed := ParseRecords(text, exclude)
	if len(parsed) == 0 {
		return nil, errNoValidRecords
	}
	return parsed, nil
}

func filterUnused(qs []Question, used *UsedSet) []Question {
	var out []Question
	for _, q := range qs {
		if !used.Has(q.Prompt) {
			out = append(out, q)
		}
	}
	return out
}

func markAll(used *UsedSet, qs []Question) {
	for _, q := range qs {
		used.Mark(q.Prompt)
	}
}
