package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile decodes the YAML file at path into v. ${VAR} and $VAR references are
// expanded from the environment before decoding; unknown keys are rejected.
func LoadFile(path string, v any) error {
	if v == nil {
		return ErrNilPointer
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrReadingFile, err)
	}

	return Decode(data, v)
}

// Decode works like LoadFile on an in-memory document
func Decode(data []byte, v any) error {
	_ = LoadEnv()

	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty document leaves v untouched
			return nil
		}
		return errors.Join(ErrReadingFile, fmt.Errorf("yaml: %w", err))
	}
	return nil
}
