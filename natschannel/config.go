package natschannel

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/semalign/errors"
)

// Config holds the connection settings for a NATS engine channel.
// DefaultConfig fills every field a deployment does not care about.
type Config struct {
	// URL is the NATS server address, such as nats://localhost:4222
	URL string

	// SubjectPrefix namespaces the three verb subjects. Two engine
	// sessions on one NATS cluster need distinct prefixes.
	SubjectPrefix string

	// RequestTimeout caps every describe, call, and eval exchange
	RequestTimeout time.Duration

	// MaxReconnects limits reconnection attempts; -1 retries forever
	MaxReconnects int

	// ReconnectWait is the pause between reconnection attempts
	ReconnectWait time.Duration

	// PingInterval drives the NATS client's own liveness pings
	PingInterval time.Duration

	// HealthInterval drives the channel's RTT sampling; 0 disables it
	HealthInterval time.Duration

	// ConnectTimeout caps the initial connection handshake
	ConnectTimeout time.Duration

	// DrainTimeout caps how long Close waits for in-flight requests
	DrainTimeout time.Duration

	// CircuitThreshold is the consecutive failure count that opens the
	// circuit breaker
	CircuitThreshold int32

	// MaxBackoff caps the circuit breaker's doubling backoff
	MaxBackoff time.Duration

	// Name identifies the client in NATS monitoring output
	Name string

	// Username and Password authenticate with user credentials
	Username string
	Password string

	// Token authenticates with a bearer token
	Token string

	// TLSCertFile and TLSKeyFile hold the client certificate pair
	TLSCertFile string
	TLSKeyFile  string

	// TLSCAFile holds the root CA bundle for server verification
	TLSCAFile string
}

// DefaultConfig returns a production-ready configuration for url
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		SubjectPrefix:    "engine",
		RequestTimeout:   30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		PingInterval:     30 * time.Second,
		HealthInterval:   10 * time.Second,
		ConnectTimeout:   5 * time.Second,
		DrainTimeout:     10 * time.Second,
		CircuitThreshold: 5,
		MaxBackoff:       time.Minute,
		Name:             "semalign-channel",
	}
}

// Validate checks the configuration for use
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "Config", "Validate",
			"NATS URL is required")
	}
	if c.SubjectPrefix == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "Config", "Validate",
			"subject prefix is required")
	}
	if strings.ContainsAny(c.SubjectPrefix, " \t*>") {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("subject prefix %q contains wildcard or whitespace", c.SubjectPrefix))
	}
	if c.RequestTimeout <= 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"request timeout must be positive")
	}
	if c.ConnectTimeout <= 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"connect timeout must be positive")
	}
	if c.CircuitThreshold < 1 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"circuit threshold must be at least 1")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"TLS certificate and key must both be set")
	}
	return nil
}

// subject returns the full subject for one verb
func (c Config) subject(verb string) string {
	return c.SubjectPrefix + "." + verb
}

// securityOptions builds the authentication and TLS options shared by
// the channel and the responder
func (c Config) securityOptions() []nats.Option {
	var opts []nats.Option
	if c.Username != "" && c.Password != "" {
		opts = append(opts, nats.UserInfo(c.Username, c.Password))
	}
	if c.Token != "" {
		opts = append(opts, nats.Token(c.Token))
	}
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		opts = append(opts, nats.ClientCert(c.TLSCertFile, c.TLSKeyFile))
	}
	if c.TLSCAFile != "" {
		opts = append(opts, nats.RootCAs(c.TLSCAFile))
	}
	return opts
}
