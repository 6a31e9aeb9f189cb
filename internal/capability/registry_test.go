package capability

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"janus/internal/common/logger"
	"janus/internal/models"
)

func provider(name string, caps ...models.InputCapability) Provider {
	return NewStaticProvider(name, caps)
}

func capability(name string, experimental bool) models.InputCapability {
	return models.InputCapability{
		Name:         name,
		Version:      "1.0.0",
		Experimental: experimental,
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry(logger.NewNoOpLogger())

	require.NoError(t, r.Register(provider("alpha", capability("text_processing", false))))
	require.NoError(t, r.Register(provider("beta", capability("text_processing", false), capability("ocr", false))))

	assert.Equal(t, []string{"alpha", "beta"}, r.ProvidersWithCapability("text_processing"))
	assert.Equal(t, []string{"beta"}, r.ProvidersWithCapability("ocr"))
	assert.Empty(t, r.ProvidersWithCapability("nonexistent"))

	caps := r.SystemCapabilities()
	assert.Equal(t, []string{"alpha", "beta"}, caps["text_processing"])
	assert.Equal(t, []string{"beta"}, caps["ocr"])
}

func TestRegistry_DuplicateRegistrationFails(t *testing.T) {
	r := NewRegistry(logger.NewNoOpLogger())

	require.NoError(t, r.Register(provider("alpha", capability("text_processing", false))))
	assert.Error(t, r.Register(provider("alpha", capability("ocr", false))))
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry(logger.NewNoOpLogger())

	require.NoError(t, r.Register(provider("alpha", capability("text_processing", false))))
	require.NoError(t, r.Unregister("alpha"))

	_, ok := r.Provider("alpha")
	assert.False(t, ok)
	assert.Empty(t, r.ProvidersWithCapability("text_processing"))

	assert.Error(t, r.Unregister("alpha"))
}

func TestRegistry_BestProviderFor(t *testing.T) {
	t.Run("earliest registered wins among equals", func(t *testing.T) {
		r := NewRegistry(logger.NewNoOpLogger())
		require.NoError(t, r.Register(provider("first", capability("text_processing", false))))
		require.NoError(t, r.Register(provider("second", capability("text_processing", false))))

		best, err := r.BestProviderFor("text_processing")
		require.NoError(t, err)
		assert.Equal(t, "first", best.Name())
	})

	t.Run("stable provider beats earlier experimental one", func(t *testing.T) {
		r := NewRegistry(logger.NewNoOpLogger())
		require.NoError(t, r.Register(provider("experimental", capability("ocr", true))))
		require.NoError(t, r.Register(provider("stable", capability("ocr", false))))

		best, err := r.BestProviderFor("ocr")
		require.NoError(t, err)
		assert.Equal(t, "stable", best.Name())
	})

	t.Run("experimental provider is returned when it is the only option", func(t *testing.T) {
		r := NewRegistry(logger.NewNoOpLogger())
		require.NoError(t, r.Register(provider("experimental", capability("ocr", true))))

		best, err := r.BestProviderFor("ocr")
		require.NoError(t, err)
		assert.Equal(t, "experimental", best.Name())
	})

	t.Run("no provider is an error listing alternatives", func(t *testing.T) {
		r := NewRegistry(logger.NewNoOpLogger())
		require.NoError(t, r.Register(provider("alpha", capability("text_processing", false))))

		_, err := r.BestProviderFor("ocr")
		assert.Error(t, err)
	})

	t.Run("selection is stable across repeated calls", func(t *testing.T) {
		r := NewRegistry(logger.NewNoOpLogger())
		require.NoError(t, r.Register(provider("first", capability("text_processing", false))))
		require.NoError(t, r.Register(provider("second", capability("text_processing", false))))

		for i := 0; i < 10; i++ {
			best, err := r.BestProviderFor("text_processing")
			require.NoError(t, err)
			assert.Equal(t, "first", best.Name())
		}
	})
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(logger.NewNoOpLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("provider-%d", i)
			assert.NoError(t, r.Register(provider(name, capability("text_processing", false))))
			r.ProvidersWithCapability("text_processing")
			r.SystemCapabilities()
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.ProvidersWithCapability("text_processing"), 20)
}

func TestRegistry_BestProviderForRequirements(t *testing.T) {
	r := NewRegistry(logger.NewNoOpLogger())
	require.NoError(t, r.Register(provider("basic", capability("text_processing", false))))
	require.NoError(t, r.Register(provider("full",
		capability("text_processing", false),
		capability("file_attachments", false),
	)))
	require.NoError(t, r.Register(provider("signed",
		capability("text_processing", false),
		capability("webhook_signatures", false),
	)))

	t.Run("all required capabilities must be present", func(t *testing.T) {
		best, err := r.BestProviderForRequirements([]string{"text_processing", "file_attachments"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "full", best.Name())
	})

	t.Run("preference filter reorders candidates", func(t *testing.T) {
		best, err := r.BestProviderForRequirements([]string{"text_processing"}, []string{"webhook_signatures"})
		require.NoError(t, err)
		assert.Equal(t, "signed", best.Name())
	})

	t.Run("no preference match falls back to registration order", func(t *testing.T) {
		best, err := r.BestProviderForRequirements([]string{"text_processing"}, []string{"speech"})
		require.NoError(t, err)
		assert.Equal(t, "basic", best.Name())
	})

	t.Run("unsatisfiable requirement set is an error", func(t *testing.T) {
		_, err := r.BestProviderForRequirements([]string{"text_processing", "speech"}, nil)
		assert.Error(t, err)
	})
}

func TestMissingRequirements(t *testing.T) {
	p := provider("alpha", capability("text_processing", false), capability("ocr", false))

	assert.Empty(t, MissingRequirements(p, []string{"text_processing"}))
	assert.Equal(t, []string{"speech"}, MissingRequirements(p, []string{"ocr", "speech"}))
}

func TestCapabilityDetails(t *testing.T) {
	p := provider("alpha", capability("text_processing", false))

	details := CapabilityDetails(p, "text_processing")
	require.NotNil(t, details)
	assert.Equal(t, "1.0.0", details.Version)

	assert.Nil(t, CapabilityDetails(p, "ocr"))
}
