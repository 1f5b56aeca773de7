package card

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/fire-danger-card/internal/catalog"
)

// Version is the card's release version.
const Version = "1.1.1"

// Catalog identity of the card.
const (
	Type        = "vic-fire-danger-card"
	Name        = "Victoria Fire Danger Card"
	Description = "A theme-aware gauge and forecast card for Victorian CFA districts."
)

// Register adds the card type to reg and logs the card version. It reports
// false when the type was already registered.
func Register(reg *catalog.Registry, logger *slog.Logger) (bool, error) {
	added, err := reg.Define(catalog.Entry{
		Type:        Type,
		Name:        Name,
		Description: Description,
		Preview:     true,
	})
	if err != nil {
		return false, fmt.Errorf("register card: %w", err)
	}
	if added {
		logger.Info("card registered", "type", Type, "version", Version)
	}
	return added, nil
}
