package redis

import "time"

// Config describes how to reach the Redis server backing the durable queue.
// ConnectionURL is usually filled from the queue URI rather than the environment.
type Config struct {
	ConnectionURL  string        `env:"JOBKIT_REDIS_URL" envDefault:"redis://localhost:6379/0"` // ConnectionURL should be in the format "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"JOBKIT_REDIS_RETRY_ATTEMPTS" envDefault:"3"`             // RetryAttempts is the number of connection attempts before giving up.
	RetryInterval  time.Duration `env:"JOBKIT_REDIS_RETRY_INTERVAL" envDefault:"2s"`            // RetryInterval is the delay between connection attempts.
	ConnectTimeout time.Duration `env:"JOBKIT_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`          // ConnectTimeout bounds the whole connection phase, retries included.
}

// DefaultConfig returns the defaults for the given connection URL
func DefaultConfig(url string) Config {
	return Config{
		ConnectionURL:  url,
		RetryAttempts:  3,
		RetryInterval:  2 * time.Second,
		ConnectTimeout: 30 * time.Second,
	}
}
