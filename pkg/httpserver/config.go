package httpserver

import "time"

// Config holds the listener settings of the producer API.
// Zero values fall back to the server defaults.
type Config struct {
	Addr            string        `yaml:"addr" env:"JOBKIT_HTTP_ADDR"`                         // Addr is the address the server listens on.
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"JOBKIT_HTTP_READ_TIMEOUT"`         // ReadTimeout is the maximum duration for reading the entire request.
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"JOBKIT_HTTP_WRITE_TIMEOUT"`       // WriteTimeout is the maximum duration before timing out writes of the response.
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"JOBKIT_HTTP_IDLE_TIMEOUT"`         // IdleTimeout is the keep-alive idle limit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"JOBKIT_HTTP_SHUTDOWN_TIMEOUT"` // ShutdownTimeout bounds the wait for in-flight requests.
}

// NewFromConfig creates a new Server from the provided Config.
// Only non-zero values from the config are applied.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	configOpts := make([]Option, 0, 5+len(opts))

	if cfg.Addr != "" {
		configOpts = append(configOpts, WithAddr(cfg.Addr))
	}
	if cfg.ReadTimeout > 0 {
		configOpts = append(configOpts, WithReadTimeout(cfg.ReadTimeout))
	}
	if cfg.WriteTimeout > 0 {
		configOpts = append(configOpts, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.IdleTimeout > 0 {
		configOpts = append(configOpts, WithIdleTimeout(cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		configOpts = append(configOpts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}

	return New(append(configOpts, opts...)...)
}
