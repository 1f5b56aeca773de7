package card

import "errors"

// ErrAlreadyConfigured is returned when SetConfig is called on a card that
// already accepted a configuration.
var ErrAlreadyConfigured = errors.New("card: configuration already set")

// ErrNotConfigured is returned when a snapshot is pushed to a card before
// SetConfig succeeded.
var ErrNotConfigured = errors.New("card: not configured")

// ConfigurationError reports a configuration the card cannot accept.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "card configuration: " + e.Reason
}

// Config is the card's static configuration.
type Config struct {
	// Entity is the district's rating_today entity, e.g. "sensor.central_rating_today".
	Entity string
	// Options holds any other keys from the host's card config. They are kept
	// for round-tripping but not interpreted.
	Options map[string]any
}

// ParseConfig reads the host's loose card configuration object.
func ParseConfig(raw map[string]any) (Config, error) {
	entity, _ := raw["entity"].(string)
	cfg := Config{Entity: entity}
	for k, v := range raw {
		if k == "entity" {
			continue
		}
		if cfg.Options == nil {
			cfg.Options = make(map[string]any)
		}
		cfg.Options[k] = v
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Entity == "" {
		return &ConfigurationError{Reason: "Please define an entity"}
	}
	return nil
}
