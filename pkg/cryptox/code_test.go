package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	tests := []struct {
		name   string
		digits int
	}{
		{"6 digits", 6},
		{"4 digits", 4},
		{"8 digits", 8},
		{"1 digit", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := GenerateNumericCode(tt.digits)
			require.NoError(t, err)
			require.Len(t, code, tt.digits, "code should be zero-padded to length")
			for _, r := range code {
				require.True(t, r >= '0' && r <= '9', "code should be numeric")
			}
		})
	}
}

func TestGenerateNumericCode_InvalidLength(t *testing.T) {
	_, err := GenerateNumericCode(0)
	require.Error(t, err)

	_, err = GenerateNumericCode(-1)
	require.Error(t, err)

	_, err = GenerateNumericCode(19)
	require.Error(t, err)
}

func TestGenerateNumericCode_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		seen[code] = true
	}
	// 50 draws from a million values should essentially never all collide
	require.Greater(t, len(seen), 40, "codes should be random")
}

func TestGenerateHexCode(t *testing.T) {
	code, err := GenerateHexCode(8)
	require.NoError(t, err)
	require.Len(t, code, 8)
	for _, r := range code {
		require.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'),
			"code should be lowercase hex")
	}
}

func TestGenerateHexCode_InvalidLength(t *testing.T) {
	_, err := GenerateHexCode(0)
	require.Error(t, err)

	_, err = GenerateHexCode(7)
	require.Error(t, err)
}

func TestGenerateHexCode_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := GenerateHexCode(8)
		require.NoError(t, err)
		seen[code] = true
	}
	require.Len(t, seen, 20, "hex codes should not collide in 20 draws")
}
