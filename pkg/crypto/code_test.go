package crypto

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		value, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, value, 100000)
		require.LessOrEqual(t, value, 999999)
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	// 50 draws from a 900k range colliding into a single value is not credible.
	require.Greater(t, len(seen), 1)
}
