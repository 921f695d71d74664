// Package config loads configuration from environment variables and YAML files.
//
// Environment parsing wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
// Load parses and caches a struct per type, ApplyEnv overlays variables onto a struct
// that was already filled from a file. LoadFile decodes YAML with gopkg.in/yaml.v3
// after expanding ${VAR} references.
//
//	var cfg engine.Config
//	if err := config.LoadFile("jobkit.yaml", &cfg); err != nil {
//		return err
//	}
//	if err := config.ApplyEnv(&cfg); err != nil {
//		return err
//	}
//
// # Error Handling
//
// Invalid settings are reported as *Error carrying the dotted key of the setting.
// errors.Is(err, ErrInvalidConfig) holds for all of them:
//
//	var cerr *config.Error
//	if errors.As(err, &cerr) {
//		fmt.Println("bad setting:", cerr.Key)
//	}
package config
