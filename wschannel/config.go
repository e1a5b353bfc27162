package wschannel

import (
	"fmt"
	"net/url"
	"time"

	"github.com/c360/semalign/errors"
)

// Config holds the connection settings for a WebSocket engine channel.
// DefaultConfig fills every field a deployment does not care about.
type Config struct {
	// URL is the bridge endpoint, such as ws://localhost:8080/engine
	URL string

	// RequestTimeout caps how long a describe, call, or eval waits for
	// its reply frame
	RequestTimeout time.Duration

	// HandshakeTimeout caps the WebSocket upgrade handshake
	HandshakeTimeout time.Duration

	// WriteTimeout caps each frame write
	WriteTimeout time.Duration

	// PingInterval drives keepalive pings and RTT sampling; 0 disables
	// them
	PingInterval time.Duration

	// MaxReconnects limits reconnection attempts after a lost
	// connection; -1 retries forever, 0 disables reconnection
	MaxReconnects int

	// ReconnectWait is the delay before the first reconnection attempt
	ReconnectWait time.Duration

	// ReconnectMaxWait caps the growing delay between attempts
	ReconnectMaxWait time.Duration

	// ReconnectMultiplier grows the delay after each failed attempt
	ReconnectMultiplier float64

	// Name identifies the client to the bridge
	Name string
}

// DefaultConfig returns a production-ready configuration for url
func DefaultConfig(url string) Config {
	return Config{
		URL:                 url,
		RequestTimeout:      30 * time.Second,
		HandshakeTimeout:    10 * time.Second,
		WriteTimeout:        10 * time.Second,
		PingInterval:        30 * time.Second,
		MaxReconnects:       -1,
		ReconnectWait:       time.Second,
		ReconnectMaxWait:    30 * time.Second,
		ReconnectMultiplier: 2.0,
		Name:                "semalign-ws",
	}
}

// Validate checks the configuration for use
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "Config", "Validate",
			"WebSocket URL is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("parsing URL %q: %v", c.URL, err))
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("URL scheme %q is not ws or wss", u.Scheme))
	}
	if c.RequestTimeout <= 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"request timeout must be positive")
	}
	if c.HandshakeTimeout <= 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"handshake timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"write timeout must be positive")
	}
	if c.MaxReconnects != 0 {
		if c.ReconnectWait <= 0 {
			return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
				"reconnect wait must be positive")
		}
		if c.ReconnectMultiplier < 1 {
			return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
				"reconnect multiplier must be at least 1")
		}
	}
	return nil
}
