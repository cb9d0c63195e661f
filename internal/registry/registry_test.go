package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjoyayroo/alphathreads/internal/domain"
)

func TestResolveKnownModels(t *testing.T) {
	ids := IDs()
	require.Equal(t, []string{"flux", "ideogram", "sdxl"}, ids)

	for _, id := range ids {
		cfg, err := Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, id, cfg.ID)
		assert.NotEmpty(t, cfg.Version)
		assert.NotEmpty(t, cfg.Params)
	}
}

func TestResolveUnknownModel(t *testing.T) {
	_, err := Resolve("nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownModel))
	assert.Contains(t, err.Error(), "valid models: flux, ideogram, sdxl")

	_, err = Resolve("")
	assert.True(t, errors.Is(err, domain.ErrUnknownModel))
}

func TestResolveReturnsParamCopy(t *testing.T) {
	cfg, err := Resolve("flux")
	require.NoError(t, err)

	cfg.Params["aspect_ratio"] = "16:9"

	again, err := Resolve("flux")
	require.NoError(t, err)
	assert.Equal(t, "1:1", again.Params["aspect_ratio"])
}
