package postfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShannonEntropy_Empty(t *testing.T) {
	assert.Equal(t, 0.0, ShannonEntropy(nil))
}

func TestShannonEntropy_SingleByteRepeatedIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ShannonEntropy([]byte("aaaaaaaa")))
}

func TestShannonEntropy_HighForRandomLookingData(t *testing.T) {
	low := ShannonEntropy([]byte("aaaaaaaaaaaaaaaa"))
	high := ShannonEntropy([]byte("9fQ2mZp7Xr4Ls8Jn"))
	assert.Greater(t, high, low)
}

func TestShannonEntropy_MaxForUniformBinary(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	assert.InDelta(t, 8.0, ShannonEntropy(data), 0.0001)
}
