package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidateDefaults(t *testing.T) {
	opts := Options{Inputs: []string{"photos"}, Rename: true}
	require.NoError(t, opts.Validate())

	assert.Equal(t, "DSC", opts.StemPrefix)
	assert.Equal(t, "info", opts.LogLevel)
	assert.NotEmpty(t, opts.ConfigDir)
	assert.NotEmpty(t, opts.LogFile)
}

func TestOptionsValidateRejects(t *testing.T) {
	t.Run("no inputs", func(t *testing.T) {
		opts := Options{Rename: true}
		assert.Error(t, opts.Validate())
	})

	t.Run("no verb", func(t *testing.T) {
		opts := Options{Inputs: []string{"photos"}}
		err := opts.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nothing to do")
	})
}

func TestOptionsValidateTrims(t *testing.T) {
	opts := Options{
		Inputs:     []string{"photos"},
		Check:      true,
		StemPrefix: "  IMG ",
		SourceZone: " UTC ",
	}
	require.NoError(t, opts.Validate())
	assert.Equal(t, "IMG", opts.StemPrefix)
	assert.Equal(t, "UTC", opts.SourceZone)
}
