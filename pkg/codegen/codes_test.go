package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodesReturnsRequestedCountAndLength(t *testing.T) {
	codes, err := GenerateCodes(50, DefaultCodeLength)
	require.NoError(t, err)
	require.Len(t, codes, 50)

	for _, code := range codes {
		assert.Len(t, code, DefaultCodeLength)
		for _, r := range code {
			assert.True(t, r >= 'A' && r <= 'Z', "code %q contains non-alphabetic character %q", code, r)
		}
	}
}

func TestGenerateCodesZeroCountReturnsEmptySlice(t *testing.T) {
	codes, err := GenerateCodes(0, DefaultCodeLength)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestGenerateCodesRejectsInvalidArguments(t *testing.T) {
	_, err := GenerateCodes(-1, DefaultCodeLength)
	assert.Error(t, err)

	_, err = GenerateCodes(5, 0)
	assert.Error(t, err)
}
