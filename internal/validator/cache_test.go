package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

func TestCache_GetMissReturnsNil(t *testing.T) {
	c := NewCache()
	assert.Nil(t, c.Get([]byte("nope")))
}

func TestCache_SetThenGet(t *testing.T) {
	c := NewCache()
	result := types.NewValidationResult(types.StatusValid, 1.0, "ok")
	c.Set([]byte("secret-value"), result)
	assert.Same(t, result, c.Get([]byte("secret-value")))
}

func TestCache_DistinctSecretsDontCollide(t *testing.T) {
	c := NewCache()
	a := types.NewValidationResult(types.StatusValid, 1.0, "a")
	b := types.NewValidationResult(types.StatusInvalid, 1.0, "b")
	c.Set([]byte("secret-a"), a)
	c.Set([]byte("secret-b"), b)
	assert.Same(t, a, c.Get([]byte("secret-a")))
	assert.Same(t, b, c.Get([]byte("secret-b")))
}
