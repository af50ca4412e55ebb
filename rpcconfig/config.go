/*
 * MIT License
 *
 * Copyright (c) 2026 Helianthus Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package rpcconfig loads and validates the external configuration
// surface of the server and client, backed by spf13/viper: a typed
// struct, defaults registered up front, then overlaid by file and
// environment.
package rpcconfig

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helianthus-go/rpc/rpcerr"
	"github.com/helianthus-go/rpc/rpctypes"
)

// Config collects every recognized runtime option.
type Config struct {
	DefaultTimeoutMs    uint32 `mapstructure:"default_timeout_ms"`
	MaxRetries          uint32 `mapstructure:"max_retries"`
	MaxConcurrentCalls  int    `mapstructure:"max_concurrent_calls"`
	DefaultFormat       string `mapstructure:"default_format"`
	EnableMetrics       bool   `mapstructure:"enable_metrics"`
	HeartbeatIntervalMs uint32 `mapstructure:"heartbeat_interval_ms"`
	ConnectionPoolSize  int    `mapstructure:"connection_pool_size"`
	MaxFrameBytes       int    `mapstructure:"max_frame_bytes"`
	ExporterPort        int    `mapstructure:"exporter_port"`

	BindAddress string `mapstructure:"bind_address"`
}

// Format parses DefaultFormat into a rpctypes.SerializationFormat.
func (c Config) Format() rpctypes.SerializationFormat {
	return rpctypes.ParseFormat(c.DefaultFormat)
}

// DefaultTimeout returns DefaultTimeoutMs as a time.Duration.
func (c Config) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutMs) * time.Millisecond
}

// HeartbeatInterval returns HeartbeatIntervalMs as a time.Duration.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMs) * time.Millisecond
}

// setDefaults registers the documented defaults on v, so a
// config file or environment need only override what it cares about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("default_timeout_ms", 5000)
	v.SetDefault("max_retries", 3)
	v.SetDefault("max_concurrent_calls", 1000)
	v.SetDefault("default_format", "JSON")
	v.SetDefault("enable_metrics", true)
	v.SetDefault("heartbeat_interval_ms", 30000)
	v.SetDefault("connection_pool_size", 16)
	v.SetDefault("max_frame_bytes", 1<<20)
	v.SetDefault("exporter_port", 9090)
	v.SetDefault("bind_address", "0.0.0.0:7890")
}

// Load builds a Config from defaults, an optional config file at path
// (skipped entirely if path is ""), and HELIANTHUS_-prefixed
// environment overrides, then validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HELIANTHUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, rpcerr.Wrap(rpcerr.CodeConfig, err, "reading config file "+path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, rpcerr.Wrap(rpcerr.CodeConfig, err, "decoding configuration")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the documented constraints on each field.
func (c Config) Validate() error {
	if c.DefaultTimeoutMs == 0 {
		return rpcerr.New(rpcerr.CodeConfig, "default_timeout_ms must be greater than zero")
	}
	if c.MaxRetries > rpctypes.MaxRetriesCeiling {
		return rpcerr.New(rpcerr.CodeConfig, "max_retries exceeds the protocol ceiling")
	}
	if c.MaxConcurrentCalls <= 0 {
		return rpcerr.New(rpcerr.CodeConfig, "max_concurrent_calls must be greater than zero")
	}
	if c.HeartbeatIntervalMs == 0 {
		return rpcerr.New(rpcerr.CodeConfig, "heartbeat_interval_ms must be greater than zero")
	}
	if c.ConnectionPoolSize <= 0 {
		return rpcerr.New(rpcerr.CodeConfig, "connection_pool_size must be greater than zero")
	}
	if c.MaxFrameBytes <= 0 {
		return rpcerr.New(rpcerr.CodeConfig, "max_frame_bytes must be greater than zero")
	}
	if c.ExporterPort <= 0 || c.ExporterPort > 65535 {
		return rpcerr.New(rpcerr.CodeConfig, "exporter_port must be a valid TCP port")
	}
	switch strings.ToUpper(c.DefaultFormat) {
	case "JSON", "BINARY":
	default:
		return rpcerr.New(rpcerr.CodeConfig, "default_format must be JSON or Binary")
	}
	return nil
}
