package iou

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iov-one/iou/errors"
)

// IsValidChainID is the RegExp to ensure valid chain IDs
var IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString

// Options are the node options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "options %q: %s", key, err)
	}
	return nil
}

// Config holds the settings every node participating in the protocol must
// agree on, plus local tuning.
type Config struct {
	// ChainID separates networks. It is part of every signature.
	ChainID string `json:"chain_id" env:"IOU_CHAIN_ID"`
	// SessionTimeout bounds every wait on a counterparty response.
	SessionTimeout Duration `json:"session_timeout" env:"IOU_SESSION_TIMEOUT"`
	// Notary is the name of the notary used for new transactions. When
	// empty the first known notary is used.
	Notary string `json:"notary" env:"IOU_NOTARY"`
}

// DefaultConfig returns the configuration used when nothing is provided.
func DefaultConfig() Config {
	return Config{
		ChainID:        "iou-devnet",
		SessionTimeout: Duration(30 * time.Second),
	}
}

// ConfigKey is the options key the configuration is read from.
const ConfigKey = "iou"

// LoadConfig builds the configuration from the defaults, the "iou" section
// of given options and finally the IOU_* environment variables, in that
// order of precedence.
func LoadConfig(opts Options) (Config, error) {
	cfg := DefaultConfig()
	if err := opts.ReadOptions(ConfigKey, &cfg); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrapf(errors.ErrInvalidInput, "parse env: %s", err)
	}
	return cfg, cfg.Validate()
}

// Validate returns an error if the configuration cannot be used.
func (c Config) Validate() error {
	if !IsValidChainID(c.ChainID) {
		return errors.Field("ChainID", errors.ErrInvalidInput, "invalid chain id %q", c.ChainID)
	}
	if c.SessionTimeout <= 0 {
		return errors.Field("SessionTimeout", errors.ErrInvalidInput, "must be positive")
	}
	return nil
}

// Duration is a time.Duration that reads and writes the human readable
// form ("30s", "1m30s") in both JSON and environment variables.
type Duration time.Duration

// Duration returns the value as time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(raw []byte) error {
	v, err := time.ParseDuration(string(raw))
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "duration %q", raw)
	}
	*d = Duration(v)
	return nil
}
