package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrPtr(t *testing.T) {
	t.Run("non-empty string", func(t *testing.T) {
		p := strPtr("freeze-abc")
		require.NotNil(t, p)
		assert.Equal(t, "freeze-abc", *p)
	})

	t.Run("empty string returns nil", func(t *testing.T) {
		assert.Nil(t, strPtr(""))
	})
}

func TestEnsureJSON(t *testing.T) {
	t.Run("nil returns empty object", func(t *testing.T) {
		assert.Equal(t, json.RawMessage(`{}`), ensureJSON(nil))
	})

	t.Run("non-nil passthrough", func(t *testing.T) {
		data := json.RawMessage(`{"key":"value"}`)
		assert.Equal(t, data, ensureJSON(data))
	})
}

func TestMergeMeta(t *testing.T) {
	t.Run("nil base with extras", func(t *testing.T) {
		result := mergeMeta(nil, map[string]interface{}{"stake": 100, "payout": 200})
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(result, &m))
		assert.Equal(t, float64(100), m["stake"])
		assert.Equal(t, float64(200), m["payout"])
	})

	t.Run("existing base with extras", func(t *testing.T) {
		base := json.RawMessage(`{"fight_number":7}`)
		result := mergeMeta(base, map[string]interface{}{"stake": 500})
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(result, &m))
		assert.Equal(t, float64(7), m["fight_number"])
		assert.Equal(t, float64(500), m["stake"])
	})

	t.Run("extras overwrite base", func(t *testing.T) {
		base := json.RawMessage(`{"stake":100}`)
		result := mergeMeta(base, map[string]interface{}{"stake": 250})
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(result, &m))
		assert.Equal(t, float64(250), m["stake"])
	})
}
