// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultPath is where the binaries look for the configuration file.
const DefaultPath = "oncore_config.txt"

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string `mapstructure:"mqtt_broker" validate:"required"`
	MQTTClientIDProducer string `mapstructure:"mqtt_client_id_producer" validate:"required"`
	MQTTClientIDConsole  string `mapstructure:"mqtt_client_id_console" validate:"required"`
	MQTTClientIDWeb      string `mapstructure:"mqtt_client_id_web" validate:"required"`
	MQTTClientIDDisplay  string `mapstructure:"mqtt_client_id_display" validate:"required"`

	// Topics
	TopicSnapshot   string `mapstructure:"topic_snapshot" validate:"required"`
	TopicFix        string `mapstructure:"topic_fix" validate:"required"`
	TopicPosition   string `mapstructure:"topic_position" validate:"required"`
	TopicReceiverID string `mapstructure:"topic_receiver_id" validate:"required"`

	// GPS serial link
	GPSSerialPort         string        `mapstructure:"gps_serial_port" validate:"required"`
	GPSBinaryBaudRate     int           `mapstructure:"gps_binary_baud_rate" validate:"gt=0"`
	GPSNMEABaudRate       int           `mapstructure:"gps_nmea_baud_rate" validate:"gt=0"`
	GPSReadTimeout        time.Duration `mapstructure:"gps_read_timeout" validate:"gt=0"`
	GPSChunkTimeout       time.Duration `mapstructure:"gps_chunk_timeout" validate:"gt=0"`
	GPSCommandDelay       time.Duration `mapstructure:"gps_command_delay" validate:"gte=0"`
	GPSModeSwitchDelay    time.Duration `mapstructure:"gps_mode_switch_delay" validate:"gte=0"`
	GPSPollInterval       time.Duration `mapstructure:"gps_poll_interval" validate:"gt=0"`
	GPSRawCommandChecksum bool          `mapstructure:"gps_raw_command_checksum"`
	GPSVerifyFrameSum     bool          `mapstructure:"gps_verify_frame_checksum"`
	NMEAStrictChecksum    bool          `mapstructure:"nmea_strict_checksum"`

	// Web Server
	WebServerPort int `mapstructure:"web_server_port" validate:"min=1,max=65535"`

	// Display
	DisplayUpdateInterval time.Duration `mapstructure:"display_update_interval" validate:"gt=0"`
	DisplayContent        string        `mapstructure:"display_content" validate:"oneof=position status"`

	// InfluxDB history, disabled when the URL is empty
	InfluxURL    string `mapstructure:"influx_url" validate:"omitempty,url"`
	InfluxToken  string `mapstructure:"influx_token" validate:"required_with=InfluxURL"`
	InfluxOrg    string `mapstructure:"influx_org" validate:"required_with=InfluxURL"`
	InfluxBucket string `mapstructure:"influx_bucket" validate:"required_with=InfluxURL"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
}

var defaults = map[string]interface{}{
	"mqtt_client_id_producer": "oncore-gps-producer",
	"mqtt_client_id_console":  "oncore-console",
	"mqtt_client_id_web":      "oncore-web",
	"mqtt_client_id_display":  "oncore-display",

	"topic_snapshot":    "oncore/snapshot",
	"topic_fix":         "oncore/fix",
	"topic_position":    "oncore/position",
	"topic_receiver_id": "oncore/receiver_id",

	"gps_binary_baud_rate":      9600,
	"gps_nmea_baud_rate":        4800,
	"gps_read_timeout":          "2s",
	"gps_chunk_timeout":         "1s",
	"gps_command_delay":         "1s",
	"gps_mode_switch_delay":     "10s",
	"gps_poll_interval":         "30s",
	"gps_raw_command_checksum":  false,
	"gps_verify_frame_checksum": false,
	"nmea_strict_checksum":      false,

	"web_server_port": 8080,

	"display_update_interval": "1s",
	"display_content":         "position",

	"influx_url":    "",
	"influx_token":  "",
	"influx_org":    "",
	"influx_bucket": "",

	"log_level": "info",
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their file key, e.g. MQTT_BROKER
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		return strings.ToUpper(name)
	})
	return v
}

// Load reads a KEY=VALUE configuration file. Lines starting with # are
// comments. Unknown keys are rejected; missing optional keys take defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("env")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.UnmarshalExact(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks required fields and value ranges.
func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_with":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s %s)", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
