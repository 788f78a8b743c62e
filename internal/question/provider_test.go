package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/category"
)

type stubGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *stubGenerator) GenerateText(_ context.Context, _ GenerateRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text, s.err
}

func (s *stubGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestProvider(gen TextGenerator) (*Provider, Cache) {
	cache := NewMemoryCache()
	return NewProvider(gen, cache, NewBank(), category.NewCatalog(), zerolog.Nop()), cache
}

func generatedLines(n int) string {
	var lines []string
	for i := 0; i < n; i++ {
		lines = append(lines, fmt.Sprintf("Generated %d?|A|B|C|D|A", i))
	}
	return strings.Join(lines, "\n")
}

func TestGeneratePrefersCache(t *testing.T) {
	gen := &stubGenerator{text: generatedLines(7)}
	provider, cache := newTestProvider(gen)
	used := NewUsedSet()

	seed := ParseRecords(generatedLines(5), nil)
	require.NoError(t, cache.Set(context.Background(), CacheKey("general", 50), seed))

	qs, fallback := provider.Generate(context.Background(), used, "general", 2, 50, "")
	require.Len(t, qs, 2)
	assert.False(t, fallback)
	assert.Equal(t, 0, gen.callCount(), "cache hit must not call the generator")
	assert.Equal(t, seed[0].Prompt, qs[0].Prompt)
	assert.Equal(t, seed[1].Prompt, qs[1].Prompt)
	assert.True(t, used.Has(qs[0].Prompt))
	assert.True(t, used.Has(qs[1].Prompt))
}

func TestGenerateFallsThroughToRemote(t *testing.T) {
	gen := &stubGenerator{text: generatedLines(8)}
	provider, cache := newTestProvider(gen)
	used := NewUsedSet()

	qs, fallback := provider.Generate(context.Background(), used, "general", 3, 50, "")
	require.Len(t, qs, 3)
	assert.False(t, fallback)
	assert.Equal(t, 1, gen.callCount())

	// The full parsed set replaces the cache entry for the key.
	cached, err := cache.Get(context.Background(), CacheKey("general", 50))
	require.NoError(t, err)
	assert.Len(t, cached, 8)
}

func TestGenerateNeverReturnsUsedQuestions(t *testing.T) {
	gen := &stubGenerator{text: generatedLines(8)}
	provider, _ := newTestProvider(gen)
	used := NewUsedSet()

	first, _ := provider.Generate(context.Background(), used, "general", 3, 50, "")
	second, _ := provider.Generate(context.Background(), used, "general", 3, 50, "")

	seen := make(map[string]struct{})
	for _, q := range first {
		seen[q.Prompt] = struct{}{}
	}
	for _, q := range second {
		_, dup := seen[q.Prompt]
		assert.False(t, dup, "prompt %q returned twice", q.Prompt)
	}
}

func TestGenerateFallsBackWhenRemoteUnreachable(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}
	provider, _ := newTestProvider(gen)
	used := NewUsedSet()

	qs, fallback := provider.Generate(context.Background(), used, "general", 2, 50, "")
	require.Len(t, qs, 2)
	assert.True(t, fallback)

	expected := NewBank().Pick("general", 2)
	for i, q := range qs {
		assert.Equal(t, expected[i].Prompt, q.Prompt)
		assert.True(t, q.Valid())
		assert.Len(t, q.Options, OptionCount)
		assert.Contains(t, q.Options, q.Answer)
	}
}

func TestGenerateFallsBackOnZeroValidRecords(t *testing.T) {
	gen := &stubGenerator{text: "garbage without delimiters\nmore garbage"}
	provider, _ := newTestProvider(gen)

	qs, fallback := provider.Generate(context.Background(), NewUsedSet(), "science", 2, 80, "")
	assert.True(t, fallback)
	require.NotEmpty(t, qs)
	assert.Equal(t, SourceFallback, qs[0].Source)
}

func TestGenerateUsesGenericBankForUnknownCategory(t *testing.T) {
	gen := &stubGenerator{err: errors.New("down")}
	provider, _ := newTestProvider(gen)

	qs, fallback := provider.Generate(context.Background(), NewUsedSet(), "custom-12345", 2, 50, "Dinosaurs")
	assert.True(t, fallback)
	require.Len(t, qs, 2)
	for _, q := range qs {
		assert.True(t, q.Valid())
	}
}

func TestGenerateRejectsNonPositiveCount(t *testing.T) {
	gen := &stubGenerator{text: generatedLines(3)}
	provider, _ := newTestProvider(gen)

	qs, fallback := provider.Generate(context.Background(), NewUsedSet(), "general", 0, 50, "")
	assert.Empty(t, qs)
	assert.False(t, fallback)
	assert.Equal(t, 0, gen.callCount())
}

func TestSwapPrefersCachedUnused(t *testing.T) {
	gen := &stubGenerator{text: generatedLines(1)}
	provider, cache := newTestProvider(gen)
	used := NewUsedSet()

	seed := ParseRecords(generatedLines(3), nil)
	require.NoError(t, cache.Set(context.Background(), CacheKey("general", 50), seed))
	current := seed[0]
	used.Mark(current.Prompt)

	replacement, ok := provider.Swap(context.Background(), used, "general", current, 50)
	require.True(t, ok)
	assert.NotEqual(t, current.Prompt, replacement.Prompt)
	assert.True(t, used.Has(replacement.Prompt))
	assert.Equal(t, 0, gen.callCount())
}

func TestSwapFallsBackToRemoteSingle(t *testing.T) {
	gen := &stubGenerator{text: "Brand new?|A|B|C|D|B"}
	provider, _ := newTestProvider(gen)
	used := NewUsedSet()

	current := Question{Prompt: "Current?", Options: []string{"A", "B", "C", "D"}, Answer: "A"}
	replacement, ok := provider.Swap(context.Background(), used, "general", current, 50)
	require.True(t, ok)
	assert.Equal(t, "Brand new?", replacement.Prompt)
	assert.Equal(t, 1, gen.callCount())
}

func TestSwapReportsNoReplacement(t *testing.T) {
	gen := &stubGenerator{err: errors.New("down")}
	provider, _ := newTestProvider(gen)

	current := Question{Prompt: "Current?", Options: []string{"A", "B", "C", "D"}, Answer: "A"}
	_, ok := provider.Swap(context.Background(), NewUsedSet(), "general", current, 50)
	assert.False(t, ok)
}

func TestWarmPopulatesCacheWithoutTouchingUsedSet(t *testing.T) {
	gen := &stubGenerator{text: generatedLines(6)}
	provider, cache := newTestProvider(gen)

	require.NoError(t, provider.Warm(context.Background(), "general", 1, 50))

	cached, err := cache.Get(context.Background(), CacheKey("general", 50))
	require.NoError(t, err)
	assert.Len(t, cached, 6)

	// A second warm for a populated key is a no-op.
	require.NoError(t, provider.Warm(context.Background(), "general", 1, 50))
	assert.Equal(t, 1, gen.callCount())
}

func TestResetUsedMakesQuestionsEligibleAgain(t *testing.T) {
	gen := &stubGenerator{text: generatedLines(5)}
	provider, _ := newTestProvider(gen)
	used := NewUsedSet()

	first, _ := provider.Generate(context.Background(), used, "general", 2, 50, "")
	used.Reset()
	second, _ := provider.Generate(context.Background(), used, "general", 2, 50, "")

	assert.Equal(t, first[0].Prompt, second[0].Prompt)
	assert.Equal(t, first[1].Prompt, second[1].Prompt)
}
