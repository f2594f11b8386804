package qdrant

import (
	"fmt"
	"net/url"
	"strconv"
)

// Config holds connection and collection settings for a Qdrant store.
type Config struct {
	// Host is the Qdrant server hostname. Default: "localhost"
	Host string
	// Port is the gRPC port. Default: 6334
	Port int
	// APIKey authenticates against Qdrant Cloud. Optional.
	APIKey string
	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool
	// CandidateCollection holds candidate points. Default: "talentmatch_candidates"
	CandidateCollection string
	// ProjectCollection holds project points. Default: "talentmatch_projects"
	ProjectCollection string
	// VectorSize is the embedding dimension used when creating collections. Default: 768
	VectorSize uint64
}

// DefaultConfig returns a configuration for a local Qdrant instance.
func DefaultConfig() *Config {
	return &Config{
		Host:                "localhost",
		Port:                6334,
		CandidateCollection: "talentmatch_candidates",
		ProjectCollection:   "talentmatch_projects",
		VectorSize:          768,
	}
}

// ConfigFromURL parses a URL such as https://host:6334 into a Config.
// Missing parts keep their defaults.
func ConfigFromURL(raw string) (*Config, error) {
	config := DefaultConfig()
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}
	if h := parsed.Hostname(); h != "" {
		config.Host = h
	}
	config.UseTLS = parsed.Scheme == "https"
	if p := parsed.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid Qdrant port %q: %w", p, err)
		}
		config.Port = port
	}
	return config, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.CandidateCollection == "" || c.ProjectCollection == "" {
		return fmt.Errorf("%w: collection names are required", ErrInvalidConfig)
	}
	if c.CandidateCollection == c.ProjectCollection {
		return fmt.Errorf("%w: candidate and project collections must differ", ErrInvalidConfig)
	}
	if c.VectorSize == 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}
