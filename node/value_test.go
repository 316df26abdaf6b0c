package node

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Cmp(t *testing.T) {
	assert.Equal(t, 1, NewValue(31).Cmp(NewValue(7)))
	assert.Equal(t, 0, NewValue(31).Cmp(NewValue(31)))
	assert.Equal(t, -1, NewValue(2).Cmp(NewValue(3)))
	// Unset compares as zero.
	assert.Equal(t, 1, NewValue(2).Cmp(Value{}))
}

func TestValue_Encoding(t *testing.T) {
	// 2^89 - 1 doesn't fit in 64 bits.
	n := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 89), big.NewInt(1))
	v := ValueFromBig(n)

	t.Run("json", func(t *testing.T) {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, "618970019642690137449562111", string(b))

		var decoded Value
		require.NoError(t, json.Unmarshal(b, &decoded))
		assert.Equal(t, 0, v.Cmp(decoded))

		assert.Error(t, json.Unmarshal([]byte(`"abc"`), &decoded))
	})

	t.Run("binary", func(t *testing.T) {
		b, err := v.MarshalBinary()
		require.NoError(t, err)

		var decoded Value
		require.NoError(t, decoded.UnmarshalBinary(b))
		assert.Equal(t, 0, v.Cmp(decoded))
	})

	t.Run("text", func(t *testing.T) {
		b, err := v.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "618970019642690137449562111", string(b))
	})
}

func TestValue_BigCopies(t *testing.T) {
	n := big.NewInt(31)
	v := ValueFromBig(n)
	n.SetInt64(7)
	assert.Equal(t, "31", v.String())

	b := v.Big()
	b.SetInt64(8191)
	assert.Equal(t, "31", v.String())
}
