package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterner_StableHandles(t *testing.T) {
	in := NewInterner()
	h1 := in.Intern("kf.aws.access_key_id")
	h2 := in.Intern("kf.github.pat")
	h3 := in.Intern("kf.aws.access_key_id")

	assert.Equal(t, h1, h3)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, "kf.aws.access_key_id", in.Lookup(h1))
	assert.Equal(t, "kf.github.pat", in.Lookup(h2))
	assert.Equal(t, 2, in.Len())
}
