package maxitaxi

import (
	"errors"
	"net/url"
	"time"
)

// Config defines a public type used by MaxiTaxi client APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	// BaseURL is the root of the MaxiTaxi API, e.g. "https://api.maxitaxi.example".
	BaseURL string
	// Secret is the static symmetric secret shared with the server, used as
	// raw AES key material (16, 24, or 32 UTF-8 bytes).
	Secret string

	HTTP       HTTPConfig
	Clock      ClockConfig
	Dispatcher DispatcherConfig
	Storage    StorageConfig
	Metrics    MetricsConfig
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig defines a public type used by MaxiTaxi client APIs.
type HTTPConfig struct {
	Timeout time.Duration
}

/*
====================================
CLOCK CONFIG
====================================
*/

// ClockConfig defines a public type used by MaxiTaxi client APIs.
//
// ClockConfig drives the session watchdog: CheckInterval paces the timer
// trigger, ActivityDebounce is the quiet window after user activity, and a
// token inside RefreshWindow of its expiry is refreshed proactively.
type ClockConfig struct {
	CheckInterval    time.Duration
	ActivityDebounce time.Duration
	RefreshWindow    time.Duration
	RefreshEndpoint  string
}

/*
====================================
DISPATCHER CONFIG
====================================
*/

// DispatcherConfig defines a public type used by MaxiTaxi client APIs.
//
// ExemptEndpoints lists the endpoint names allowed through without a valid
// session. Any future public endpoint must be added here explicitly.
type DispatcherConfig struct {
	ExemptEndpoints []string
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig defines a public type used by MaxiTaxi client APIs.
//
// FilePath selects the file-backed store when set and no explicit store is
// injected. RedisPrefix namespaces the keys of a Redis-backed store.
type StorageConfig struct {
	FilePath    string
	RedisPrefix string
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by MaxiTaxi client APIs.
type MetricsConfig struct {
	Enabled bool
}

const (
	endpointLogin    = "login"
	endpointRegister = "register"
)

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Clock: ClockConfig{
			CheckInterval:    5 * time.Minute,
			ActivityDebounce: 2 * time.Second,
			RefreshWindow:    10 * time.Minute,
			RefreshEndpoint:  "refresh-token",
		},
		Dispatcher: DispatcherConfig{
			ExemptEndpoints: []string{endpointLogin, endpointRegister},
		},
		Storage: StorageConfig{
			RedisPrefix: "mxtx",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig returns the configuration the builder starts from; callers
// fill in BaseURL and Secret and adjust the rest as needed.
// DefaultConfig does not mutate shared global state and can be used concurrently.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Dispatcher.ExemptEndpoints = append([]string(nil), cfg.Dispatcher.ExemptEndpoints...)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation fails.
// Validate does not mutate shared global state and can be used concurrently.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("BaseURL required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("BaseURL must be an absolute URL")
	}
	switch len(c.Secret) {
	case 16, 24, 32:
	default:
		return errors.New("Secret must be 16, 24, or 32 bytes")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("HTTP Timeout must be positive")
	}
	if c.Clock.CheckInterval <= 0 {
		return errors.New("Clock CheckInterval must be positive")
	}
	if c.Clock.ActivityDebounce <= 0 {
		return errors.New("Clock ActivityDebounce must be positive")
	}
	if c.Clock.RefreshWindow <= 0 {
		return errors.New("Clock RefreshWindow must be positive")
	}
	if c.Clock.RefreshEndpoint == "" {
		return errors.New("Clock RefreshEndpoint required")
	}
	for _, e := range c.Dispatcher.ExemptEndpoints {
		if e == "" {
			return errors.New("Dispatcher ExemptEndpoints must not contain empty names")
		}
	}
	return nil
}
