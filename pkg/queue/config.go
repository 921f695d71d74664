package queue

import "time"

// Config holds the dispatcher tuning knobs.
// Fields carry yaml tags for the declarative config file and env tags for overrides;
// there are no envDefault tags so unset variables never clobber file values.
type Config struct {
	NumWorkers      int           `yaml:"num_workers" env:"JOBKIT_NUM_WORKERS"`
	JobTimeout      time.Duration `yaml:"job_timeout" env:"JOBKIT_JOB_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"JOBKIT_SHUTDOWN_TIMEOUT"`
	PollInterval    time.Duration `yaml:"poll_interval" env:"JOBKIT_POLL_INTERVAL"`
	MaxPollInterval time.Duration `yaml:"max_poll_interval" env:"JOBKIT_MAX_POLL_INTERVAL"`
	ReapInterval    time.Duration `yaml:"reap_interval" env:"JOBKIT_REAP_INTERVAL"`
}

// DefaultConfig returns the defaults applied to zero fields
func DefaultConfig() Config {
	return Config{
		NumWorkers:      1,
		JobTimeout:      30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		PollInterval:    time.Second,
		MaxPollInterval: 10 * time.Second,
		ReapInterval:    30 * time.Second,
	}
}

// withDefaults fills zero or negative fields from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NumWorkers <= 0 {
		c.NumWorkers = d.NumWorkers
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = d.JobTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MaxPollInterval <= 0 {
		c.MaxPollInterval = max(d.MaxPollInterval, c.PollInterval)
	}
	if c.MaxPollInterval < c.PollInterval {
		c.MaxPollInterval = c.PollInterval
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = d.ReapInterval
	}
	return c
}
