package card

import (
	"log/slog"
	"testing"

	"github.com/couchcryptid/fire-danger-card/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := catalog.NewRegistry()
	logger := slog.New(slog.DiscardHandler)

	added, err := Register(reg, logger)
	require.NoError(t, err)
	assert.True(t, added)

	e, ok := reg.Get("vic-fire-danger-card")
	require.True(t, ok)
	assert.Equal(t, "Victoria Fire Danger Card", e.Name)
	assert.Equal(t, "A theme-aware gauge and forecast card for Victorian CFA districts.", e.Description)
	assert.True(t, e.Preview)

	added, err = Register(reg, logger)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, reg.Entries(), 1)
}
