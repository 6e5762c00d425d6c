package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if len(cfg.Languages) == 0 {
		errs = append(errs, errors.New("languages must list at least one language"))
	}

	codesSeen := make(map[string]int, len(cfg.Languages))
	for i, l := range cfg.Languages {
		prefix := fmt.Sprintf("languages[%d]", i)
		if l.Code == "" {
			errs = append(errs, fmt.Errorf("%s.code is required", prefix))
		} else {
			if prev, ok := codesSeen[l.Code]; ok {
				errs = append(errs, fmt.Errorf("%s.code %q is a duplicate of languages[%d]", prefix, l.Code, prev))
			}
			codesSeen[l.Code] = i
		}
		if l.ModelDir == "" {
			errs = append(errs, fmt.Errorf("%s.model_dir is required", prefix))
		}
		if l.GrammarFile == "" {
			errs = append(errs, fmt.Errorf("%s.grammar_file is required", prefix))
		}
		if l.VoiceID == "" {
			errs = append(errs, fmt.Errorf("%s.voice_id is required", prefix))
		}
	}

	if cfg.DefaultLanguage == "" {
		errs = append(errs, errors.New("default_language is required"))
	} else if _, ok := codesSeen[cfg.DefaultLanguage]; !ok && len(cfg.Languages) > 0 {
		errs = append(errs, fmt.Errorf("default_language %q is not in the languages list", cfg.DefaultLanguage))
	}

	for i, cy := range cfg.Audio.Cycles {
		prefix := fmt.Sprintf("audio.cycles[%d]", i)
		if cy.SampleRate <= 0 {
			errs = append(errs, fmt.Errorf("%s.sample_rate %d must be positive", prefix, cy.SampleRate))
		}
		if cy.BlockSize <= 0 {
			errs = append(errs, fmt.Errorf("%s.block_size %d must be positive", prefix, cy.BlockSize))
		}
	}

	return errors.Join(errs...)
}
