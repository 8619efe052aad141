package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	client := NewClient(0, "")
	composer := NewComposerProvider(client, ComposerOptions{})
	npm := NewNPMProvider(client, NPMOptions{})

	set, err := NewSet(composer, npm)
	require.NoError(t, err)

	p, err := set.Get("Composer")
	require.NoError(t, err)
	assert.Same(t, composer, p)

	names := []string{}
	for _, p := range set.List() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"composer", "npm"}, names)

	assert.Error(t, set.Add(NewComposerProvider(client, ComposerOptions{})))
	assert.Error(t, set.Add(nil))

	_, err = set.Get("cargo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
	assert.Equal(t, "cargo: unknown provider", err.Error())
}

func TestErrorFormatting(t *testing.T) {
	err := NewError("composer", ErrInvalidResponse, "missing package in response")
	assert.Equal(t, "composer: invalid response: missing package in response", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidResponse))
	assert.Equal(t, "no results", NewError("", ErrEmptyResult, "").Error())
}
