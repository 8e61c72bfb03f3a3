package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/chairside/pmsflow/internal/common"
)

// Settings is the resolved application configuration.
type Settings struct {
	// Gateway
	GatewayURL     string
	APIKey         string
	GatewayTimeout time.Duration

	// Practice identity
	Domain     string
	LocationID string
	PMSType    string

	// Local state
	DatabasePath string

	// Event forwarding; empty URL disables the AMQP forwarder.
	AMQPURL      string
	AMQPExchange string
}

// Load resolves settings from viper with defaults applied.
func Load() (*Settings, error) {
	v := viper.GetViper()

	v.SetDefault("gateway.timeout", "30s")
	v.SetDefault("database.path", "~/.local/share/pmsflow/pmsflow.db")
	v.SetDefault("events.exchange", "pms.events")

	s := &Settings{
		GatewayURL:     v.GetString("gateway.url"),
		APIKey:         v.GetString("gateway.api_key"),
		GatewayTimeout: v.GetDuration("gateway.timeout"),
		Domain:         v.GetString("practice.domain"),
		LocationID:     v.GetString("practice.location_id"),
		PMSType:        v.GetString("practice.pms_type"),
		DatabasePath:   ExpandPath(v.GetString("database.path")),
		AMQPURL:        v.GetString("events.amqp_url"),
		AMQPExchange:   v.GetString("events.exchange"),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the settings required by every command are present.
func (s *Settings) Validate() error {
	if s.GatewayURL == "" {
		return fmt.Errorf("%w: gateway.url (or PMSFLOW_GATEWAY_URL)", common.ErrMissingConfig)
	}
	if s.Domain == "" {
		return fmt.Errorf("%w: practice.domain (or PMSFLOW_PRACTICE_DOMAIN)", common.ErrMissingConfig)
	}
	if s.GatewayTimeout <= 0 {
		return fmt.Errorf("%w: gateway.timeout must be positive", common.ErrInvalidConfig)
	}
	return nil
}
