package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for statebridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Prefix   string         `yaml:"prefix"`
	Logging  LoggingConfig  `yaml:"logging"`
	Sink     SinkConfig     `yaml:"sink"`
	Source   SourceConfig   `yaml:"source"`
	Backfill BackfillConfig `yaml:"backfill"`
	States   StatesConfig   `yaml:"states"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SinkConfig selects and configures the delivery target.
type SinkConfig struct {
	// Type is "victoriametrics" (HTTP batch import) or "graphite"
	// (plaintext socket).
	Type string `yaml:"type"`

	// URL is the sink base URL for the victoriametrics type.
	URL string `yaml:"url"`

	// Host, Port and Protocol configure the graphite socket type.
	// Protocol is "tcp" or "udp"; default tcp.
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`
}

// SourceConfig selects and configures the live-feed event source.
type SourceConfig struct {
	// Type is "hass" (Home Assistant WebSocket API) or "mqtt"
	// (eventstream topic on an MQTT broker).
	Type string `yaml:"type"`

	Hass HassConfig `yaml:"hass"`
	MQTT MQTTConfig `yaml:"mqtt"`
}

// HassConfig contains Home Assistant WebSocket API settings.
type HassConfig struct {
	// URL is the WebSocket endpoint, e.g. "ws://hass.local:8123/api/websocket".
	URL string `yaml:"url"`

	// Token is a long-lived access token.
	Token string `yaml:"token"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Topic     string              `yaml:"topic"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// BackfillConfig configures the bulk-import run mode.
type BackfillConfig struct {
	Input InputConfig `yaml:"input"`

	// Start and End bound the query window. RFC 3339 timestamps; End
	// also accepts "now".
	Start string `yaml:"start"`
	End   string `yaml:"end"`

	// WhitelistEntities, when non-empty, is the exact entity set to
	// export; the unique-entities query is skipped.
	WhitelistEntities []string `yaml:"whitelist_entities"`

	// BlacklistEntities are skipped even when discovered.
	BlacklistEntities []string `yaml:"blacklist_entities"`

	// BlacklistTags are dropped from every record's tag set.
	BlacklistTags []string `yaml:"blacklist_tags"`
}

// InputConfig contains the historical query backend settings.
type InputConfig struct {
	// Type selects the backend; only "influxv2" is supported.
	Type   string `yaml:"type"`
	URL    string `yaml:"url"`
	Org    string `yaml:"org"`
	Token  string `yaml:"token"`
	Bucket string `yaml:"bucket"`
}

// StatesConfig is the on/off state literal vocabulary. Empty lists fall
// back to the built-in defaults.
type StatesConfig struct {
	On  []string `yaml:"on"`
	Off []string `yaml:"off"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: STATEBRIDGE_SECTION_KEY
// For example: STATEBRIDGE_SINK_URL, STATEBRIDGE_HASS_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded configuration with mode-independent validation applied
//   - error: If file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	// Trailing separators on the prefix are stripped exactly once, here.
	cfg.Prefix = strings.TrimRight(cfg.Prefix, ".")

	if err := cfg.validateSink(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Prefix: "ha",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Sink: SinkConfig{
			Type: "victoriametrics",
			URL:  "http://localhost:8428",
		},
		Source: SourceConfig{
			Type: "hass",
			MQTT: MQTTConfig{
				Broker: MQTTBrokerConfig{
					Host:     "localhost",
					Port:     1883,
					ClientID: "statebridge",
				},
				QoS:   1,
				Topic: "homeassistant/eventstream",
				Reconnect: MQTTReconnectConfig{
					InitialDelay: 1,
					MaxDelay:     60,
				},
			},
		},
		Backfill: BackfillConfig{
			Input: InputConfig{Type: "influxv2"},
			End:   "now",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: STATEBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Sink
	if v := os.Getenv("STATEBRIDGE_SINK_URL"); v != "" {
		cfg.Sink.URL = v
	}

	// Home Assistant
	if v := os.Getenv("STATEBRIDGE_HASS_TOKEN"); v != "" {
		cfg.Source.Hass.Token = v
	}

	// MQTT
	if v := os.Getenv("STATEBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.Source.MQTT.Auth.Username = v
	}
	if v := os.Getenv("STATEBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.Source.MQTT.Auth.Password = v
	}

	// Backfill input
	if v := os.Getenv("STATEBRIDGE_INFLUX_TOKEN"); v != "" {
		cfg.Backfill.Input.Token = v
	}
}

// validateSink checks the delivery section, which every run mode needs.
func (c *Config) validateSink() error {
	var errs []string

	switch c.Sink.Type {
	case "victoriametrics":
		if c.Sink.URL == "" {
			errs = append(errs, "sink.url is required for type victoriametrics")
		}
	case "graphite":
		if c.Sink.Host == "" {
			errs = append(errs, "sink.host is required for type graphite")
		}
		if c.Sink.Port <= 0 {
			errs = append(errs, "sink.port is required for type graphite")
		}
		if p := c.Sink.Protocol; p != "" && p != "tcp" && p != "udp" {
			errs = append(errs, fmt.Sprintf("sink.protocol %q is not supported (tcp, udp)", p))
		}
	case "":
		errs = append(errs, "sink.type is required")
	default:
		errs = append(errs, fmt.Sprintf("sink.type %q is not supported (victoriametrics, graphite)", c.Sink.Type))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateLive checks the sections required by the live-feed mode.
func (c *Config) ValidateLive() error {
	var errs []string

	switch c.Source.Type {
	case "hass":
		if c.Source.Hass.URL == "" {
			errs = append(errs, "source.hass.url is required")
		}
		if c.Source.Hass.Token == "" {
			errs = append(errs, "source.hass.token is required")
		}
	case "mqtt":
		if c.Source.MQTT.Broker.Host == "" {
			errs = append(errs, "source.mqtt.broker.host is required")
		}
		if c.Source.MQTT.Topic == "" {
			errs = append(errs, "source.mqtt.topic is required")
		}
		if c.Source.MQTT.QoS < 0 || c.Source.MQTT.QoS > 2 {
			errs = append(errs, "source.mqtt.qos must be 0, 1 or 2")
		}
	case "":
		errs = append(errs, "source.type is required for live mode")
	default:
		errs = append(errs, fmt.Sprintf("source.type %q is not supported (hass, mqtt)", c.Source.Type))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateBackfill checks the sections required by the backfill mode.
func (c *Config) ValidateBackfill() error {
	var errs []string

	switch c.Backfill.Input.Type {
	case "influxv2":
		if c.Backfill.Input.URL == "" {
			errs = append(errs, "backfill.input.url is required")
		}
		if c.Backfill.Input.Org == "" {
			errs = append(errs, "backfill.input.org is required")
		}
		if c.Backfill.Input.Token == "" {
			errs = append(errs, "backfill.input.token is required")
		}
		if c.Backfill.Input.Bucket == "" {
			errs = append(errs, "backfill.input.bucket is required")
		}
	case "":
		errs = append(errs, "backfill.input.type is required")
	default:
		errs = append(errs, fmt.Sprintf("backfill.input.type %q is not supported (influxv2)", c.Backfill.Input.Type))
	}

	if _, _, err := c.Backfill.Window(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Window parses the configured backfill time bounds. End accepts "now"
// (or empty) for the current time.
func (b BackfillConfig) Window() (start, end time.Time, err error) {
	if b.Start == "" {
		return start, end, fmt.Errorf("backfill.start is required")
	}
	start, err = time.Parse(time.RFC3339, b.Start)
	if err != nil {
		return start, end, fmt.Errorf("backfill.start: %w", err)
	}

	switch b.End {
	case "", "now":
		end = time.Now().UTC()
	default:
		end, err = time.Parse(time.RFC3339, b.End)
		if err != nil {
			return start, end, fmt.Errorf("backfill.end: %w", err)
		}
	}

	if !end.After(start) {
		return start, end, fmt.Errorf("backfill window: end must be after start")
	}
	return start, end, nil
}
