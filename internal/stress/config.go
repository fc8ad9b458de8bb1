package stress

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned (wrapped) by Validate and LoadConfig.
var ErrInvalidConfig = errors.New("invalid stress config")

// Outcome selects which terminal transition the transitioners attempt.
type Outcome string

const (
	// OutcomeCancel makes every transitioner call Cancel.
	OutcomeCancel Outcome = "cancel"
	// OutcomeComplete makes every transitioner call Complete.
	OutcomeComplete Outcome = "complete"
	// OutcomeRace alternates Cancel and Complete across transitioners.
	OutcomeRace Outcome = "race"
)

// Config describes one stress run against a single shared token.
type Config struct {
	// Workers is the number of goroutines registering callbacks.
	Workers int `yaml:"workers"`
	// CallbacksPerWorker is how many OnCancel calls each worker makes.
	CallbacksPerWorker int `yaml:"callbacksPerWorker"`
	// Transitioners is the number of goroutines calling Cancel/Complete.
	Transitioners int `yaml:"transitioners"`
	// TransitionAfter holds transitioners back until this many callbacks
	// have been registered. Zero starts them together with the workers.
	TransitionAfter int `yaml:"transitionAfter"`
	// Outcome picks the transition the transitioners race for.
	Outcome Outcome `yaml:"outcome"`

	// Shards and RingCapacity size the fan-in ring fired callbacks report into.
	Shards       uint64 `yaml:"shards"`
	RingCapacity uint64 `yaml:"ringCapacity"`
}

// DefaultConfig returns a moderately sized racing run.
func DefaultConfig() Config {
	return Config{
		Workers:            8,
		CallbacksPerWorker: 1000,
		Transitioners:      4,
		TransitionAfter:    4000,
		Outcome:            OutcomeRace,
		Shards:             4,
		RingCapacity:       4096,
	}
}

// Total returns the number of callbacks the run registers.
func (c Config) Total() int {
	return c.Workers * c.CallbacksPerWorker
}

// Validate checks the config for values Run cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	case c.CallbacksPerWorker < 0:
		return fmt.Errorf("%w: callbacksPerWorker must be >= 0, got %d", ErrInvalidConfig, c.CallbacksPerWorker)
	case c.Transitioners < 1:
		return fmt.Errorf("%w: transitioners must be >= 1, got %d", ErrInvalidConfig, c.Transitioners)
	case c.TransitionAfter < 0 || c.TransitionAfter > c.Total():
		return fmt.Errorf("%w: transitionAfter must be within [0, %d], got %d", ErrInvalidConfig, c.Total(), c.TransitionAfter)
	case c.Shards < 1:
		return fmt.Errorf("%w: shards must be >= 1", ErrInvalidConfig)
	case c.RingCapacity < c.Shards:
		return fmt.Errorf("%w: ringCapacity %d is smaller than shards %d", ErrInvalidConfig, c.RingCapacity, c.Shards)
	}

	switch c.Outcome {
	case OutcomeCancel, OutcomeComplete, OutcomeRace:
	default:
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidConfig, c.Outcome)
	}
	return nil
}

// LoadConfig reads a YAML config from path. Fields missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading stress config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
