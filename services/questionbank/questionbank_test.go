package questionbank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func first(int) int { return 0 }

func TestDefaultBankLoads(t *testing.T) {
	b := Default()
	require.NotEmpty(t, b.Questions)
	for _, q := range b.Questions {
		assert.NotEmpty(t, q.Prompt)
		assert.Contains(t, []string{"easy", "medium", "hard"}, q.Difficulty)
	}
}

func TestPick(t *testing.T) {
	b := Default()

	q := b.Pick("hard", "System Design", first)
	assert.Equal(t, "system design", q.Topic)
	assert.Equal(t, "hard", q.Difficulty)

	q = b.Pick("expert", "algorithms", first)
	assert.Equal(t, "algorithms", q.Topic)

	q = b.Pick("easy", "cooking", first)
	assert.Equal(t, "easy", q.Difficulty)

	q = b.Pick("", "", nil)
	assert.NotEmpty(t, q.Prompt)
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse([]byte("questions: []"))
	assert.Error(t, err)

	_, err = Parse([]byte("questions: [unterminated"))
	assert.Error(t, err)
}
