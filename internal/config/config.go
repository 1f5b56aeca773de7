package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	// Embedded zone database so CARD_TIMEZONE resolves in minimal containers.
	_ "time/tzdata"

	"github.com/couchcryptid/fire-danger-card/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

const (
	defaultTimezone        = "Australia/Melbourne"
	defaultRefreshSchedule = "0 0 * * *"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Card configuration.
	CardEntities        []string
	CardTimezone        *time.Location
	CardRefreshSchedule string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is read first; variables already set
// in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	tzName := sharedcfg.EnvOrDefault("CARD_TIMEZONE", defaultTimezone)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid CARD_TIMEZONE %q: %w", tzName, err)
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "home-assistant-state-changes"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "fire-danger-card-surfaces"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "fire-danger-card"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		CardEntities:        parseEntities(sharedcfg.EnvOrDefault("CARD_ENTITIES", "")),
		CardTimezone:        loc,
		CardRefreshSchedule: sharedcfg.EnvOrDefault("CARD_REFRESH_SCHEDULE", defaultRefreshSchedule),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if len(cfg.CardEntities) == 0 {
		return nil, errors.New("CARD_ENTITIES must name at least one entity")
	}

	return cfg, nil
}

// parseEntities splits a comma-separated entity list. An empty list selects
// the rating_today entity of every CFA district.
func parseEntities(s string) []string {
	if strings.TrimSpace(s) == "" {
		entities := make([]string, 0, len(domain.Districts))
		for _, d := range domain.Districts {
			entities = append(entities, domain.DistrictEntityID(d))
		}
		return entities
	}

	var entities []string
	seen := make(map[string]bool)
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		entities = append(entities, e)
	}
	return entities
}
