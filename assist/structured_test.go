package assist

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestExtractJSON_Plain(t *testing.T) {
	got, err := ExtractJSON[payload](`{"name": "billing", "count": 3}`, nil)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "billing", Count: 3}, got)
}

func TestExtractJSON_CodeFences(t *testing.T) {
	raw := "Here is the breakdown:\n```json\n{\"name\": \"billing\", \"count\": 3}\n```\nHope that helps!"

	got, err := ExtractJSON[payload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "billing", got.Name)
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	raw := `Sure! The result is {"name": "ops", "count": 1} as requested.`

	got, err := ExtractJSON[payload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "ops", got.Name)
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	type nested struct {
		Outer map[string]string `json:"outer"`
	}
	raw := `{"outer": {"a": "b}", "c": "{d"}}`

	got, err := ExtractJSON[nested](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "b}", got.Outer["a"])
	assert.Equal(t, "{d", got.Outer["c"])
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON[payload]("no json here at all", nil)
	assert.True(t, errors.Is(err, ErrInvalidOutput))
}

func TestExtractJSON_Unbalanced(t *testing.T) {
	_, err := ExtractJSON[payload](`{"name": "truncated`, nil)
	assert.True(t, errors.Is(err, ErrInvalidOutput))
}

func TestExtractJSON_ValidatorRejects(t *testing.T) {
	_, err := ExtractJSON[payload](`{"name": "", "count": 0}`, func(p payload) error {
		if p.Name == "" {
			return fmt.Errorf("empty name")
		}
		return nil
	})
	assert.True(t, errors.Is(err, ErrInvalidOutput))
}
