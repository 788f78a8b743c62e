package question

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordsAcceptsValidLines(t *testing.T) {
	text := strings.Join([]string{
		"What is 2+2?|1|2|3|4|4",
		"Capital of France?|Paris|Rome|Berlin|Madrid|Paris",
	}, "\n")

	qs := ParseRecords(text, nil)
	require.Len(t, qs, 2)

	for _, q := range qs {
		assert.True(t, q.Valid())
		assert.Len(t, q.Options, OptionCount)
		assert.Contains(t, q.Options, q.Answer)
		assert.Equal(t, SourceGenerated, q.Source)
	}
	assert.Equal(t, "What is 2+2?", qs[0].Prompt)
	assert.Equal(t, "Capital of France?", qs[1].Prompt)
}

func TestParseRecordsRejectsMalformedLines(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"too few fields", "Question?|A|B|C|A"},
		{"too many fields", "Question?|A|B|C|D|A|extra"},
		{"empty option", "Question?|A||C|D|A"},
		{"empty prompt", "|A|B|C|D|A"},
		{"answer not in options", "Question?|A|B|C|D|E"},
		{"blank line", "   "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Empty(t, ParseRecords(tc.line, nil))
		})
	}
}

func TestParseRecordsSkipsUsedPrompts(t *testing.T) {
	used := NewUsedSet()
	used.Mark("Seen before?")

	text := "Seen before?|A|B|C|D|A\nFresh one?|A|B|C|D|B"
	qs := ParseRecords(text, used.Has)
	require.Len(t, qs, 1)
	assert.Equal(t, "Fresh one?", qs[0].Prompt)
}

func TestParseRecordsDeduplicatesWithinResponse(t *testing.T) {
	text := strings.Join([]string{
		"Same?|A|B|C|D|A",
		"Same?|W|X|Y|Z|W",
		"Other?|A|B|C|D|B",
	}, "\n")

	qs := ParseRecords(text, nil)
	require.Len(t, qs, 2)
	assert.Equal(t, "Same?", qs[0].Prompt)
	assert.Equal(t, "A", qs[0].Answer, "first occurrence wins")
	assert.Equal(t, "Other?", qs[1].Prompt)
}

func TestParseRecordsTrimsWhitespace(t *testing.T) {
	qs := ParseRecords("  Question? | A | B | C | D | C  \n", nil)
	require.Len(t, qs, 1)
	assert.Equal(t, "Question?", qs[0].Prompt)
	assert.Equal(t, "C", qs[0].Answer)
	assert.Equal(t, []string{"A", "B", "C", "D"}, qs[0].Options)
}

func TestDifficultyLabel(t *testing.T) {
	assert.Equal(t, DifficultyEasy, DifficultyLabel(1))
	assert.Equal(t, DifficultyEasy, DifficultyLabel(29))
	assert.Equal(t, DifficultyMedium, DifficultyLabel(30))
	assert.Equal(t, DifficultyMedium, DifficultyLabel(70))
	assert.Equal(t, DifficultyHard, DifficultyLabel(71))
	assert.Equal(t, DifficultyHard, DifficultyLabel(100))
}
