package secret

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_SetWhenNonEmpty(t *testing.T) {
	s := New("sk-super-secret")
	assert.True(t, s.Set())
	assert.Equal(t, "sk-super-secret", s.Expose())
}

func TestNew_UnsetWhenEmpty(t *testing.T) {
	s := New("")
	assert.False(t, s.Set())
}

func TestZeroValue_Unset(t *testing.T) {
	var s String
	assert.False(t, s.Set())
	assert.Equal(t, "", s.Expose())
}

func TestString_NeverRevealsValue(t *testing.T) {
	s := New("sk-super-secret")
	assert.Equal(t, "***", s.String())
	assert.Equal(t, "***", fmt.Sprintf("%v", s))
	assert.Equal(t, "***", fmt.Sprintf("%s", s))
}

func TestGoString_NeverRevealsValue(t *testing.T) {
	s := New("sk-super-secret")
	out := fmt.Sprintf("%#v", s)
	assert.Equal(t, "secret.String(***)", out)
	assert.NotContains(t, out, "sk-super-secret")
}
