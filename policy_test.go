package unattended

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{
		"consume-once":     ConsumeOnce,
		"CONSUME_ONCE":     ConsumeOnce,
		"once":             ConsumeOnce,
		" repeat-forever ": RepeatForever,
		"forever":          RepeatForever,
	} {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePolicy("sometimes")
	assert.ErrorContains(t, err, `unknown policy "sometimes"`)
}

func TestPolicyText(t *testing.T) {
	var p Policy
	require.NoError(t, p.Set("repeat-forever"))
	assert.Equal(t, RepeatForever, p)
	assert.Equal(t, "policy", p.Type())

	text, err := p.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "repeat-forever", string(text))

	assert.Error(t, p.UnmarshalText([]byte("bogus")))
	assert.Equal(t, RepeatForever, p, "failed parse leaves the value alone")
	assert.Equal(t, "Policy(7)", Policy(7).String())
}
