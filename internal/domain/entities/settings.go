package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const defaultScanTimeout = 60 * time.Second

// defaultMaxFileSize caps the files the scanners will read (bytes).
const defaultMaxFileSize = 200_000

// Settings is the immutable run configuration threaded through each
// component call. Never ambient/global state: the reconciler and planner
// stay pure and independently testable.
type Settings struct {
	// Freshness maps a normalized dependency name to the version baseline
	// used for the Outdated classification. No registry is ever queried.
	Freshness map[string]string `yaml:"freshness"`
	// ExemptKinds lists finding kinds to always suppress.
	ExemptKinds []string `yaml:"exempt_kinds"`
	// ExemptPackages lists build-only packages never reported as unused
	// (test runners, type stubs and the like).
	ExemptPackages []string `yaml:"exempt_packages"`
	// ImportAliases maps import names to the package that provides them,
	// e.g. yaml -> pyyaml. Merged over the built-in table.
	ImportAliases map[string]string `yaml:"import_aliases"`
	// ExcludeDirs extends the default dependency-cache exclusions.
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// MaxFileSize caps scanned file size in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`
	// ScanTimeoutSeconds bounds the scan phase of a run.
	ScanTimeoutSeconds int `yaml:"scan_timeout_seconds"`
	// Model is the LLM used by the agent surface; the dependency engine
	// never touches it.
	Model string `yaml:"model"`
	// OpenAIAPIKey may be inline or a ${ENV_VAR} reference.
	OpenAIAPIKey string `yaml:"openai_api_key"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// defaultExcludeDirs are always skipped during traversal.
var defaultExcludeDirs = []string{
	".git", ".hg", ".svn", ".venv", "venv", "node_modules",
	"dist", "build", "__pycache__", "vendor", ".terraform",
}

// NewSettings reads and parses a configuration file, expanding ${ENV}
// references in secret values.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	settings := DefaultSettings()
	if unmarshalErr := yaml.Unmarshal(data, settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.OpenAIAPIKey = expandEnv(settings.OpenAIAPIKey)

	if validateErr := settings.validate(); validateErr != nil {
		return nil, validateErr
	}
	return settings, nil
}

// DefaultSettings returns the configuration used when no file is found.
func DefaultSettings() *Settings {
	return &Settings{
		Freshness:          map[string]string{},
		ImportAliases:      map[string]string{},
		MaxFileSize:        defaultMaxFileSize,
		ScanTimeoutSeconds: int(defaultScanTimeout / time.Second),
		Model:              "gpt-4o",
	}
}

// FindConfigFile searches standard locations for a configuration file.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{".", ".config", "configs"}
	if homeDir != "" {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{
		".aicode.yaml",
		".aicode.yml",
		"aicode.yaml",
		"aicode.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}
	return "", errors.New("config file not found in default locations")
}

// ScanTimeout returns the configured scan bound as a duration.
func (s *Settings) ScanTimeout() time.Duration {
	if s.ScanTimeoutSeconds <= 0 {
		return defaultScanTimeout
	}
	return time.Duration(s.ScanTimeoutSeconds) * time.Second
}

// AllExcludeDirs merges the built-in exclusions with configured ones.
func (s *Settings) AllExcludeDirs() map[string]bool {
	excluded := make(map[string]bool, len(defaultExcludeDirs)+len(s.ExcludeDirs))
	for _, dir := range defaultExcludeDirs {
		excluded[dir] = true
	}
	for _, dir := range s.ExcludeDirs {
		excluded[dir] = true
	}
	return excluded
}

// IsExemptKind reports whether a finding kind is globally suppressed.
func (s *Settings) IsExemptKind(kind FindingKind) bool {
	for _, exempt := range s.ExemptKinds {
		if strings.EqualFold(exempt, string(kind)) {
			return true
		}
	}
	return false
}

// IsExemptPackage reports whether a package is treated as build-only and
// never flagged unused. Stub/types packages are exempt by convention.
func (s *Settings) IsExemptPackage(name string) bool {
	lowered := strings.ToLower(name)
	if strings.HasSuffix(lowered, "-stubs") || strings.HasPrefix(lowered, "types-") {
		return true
	}
	for _, exempt := range s.ExemptPackages {
		if strings.EqualFold(exempt, name) {
			return true
		}
	}
	return false
}

// ResolveAPIKey returns the configured key, falling back to the
// OPENAI_API_KEY environment variable.
func (s *Settings) ResolveAPIKey() string {
	if s.OpenAIAPIKey != "" {
		return s.OpenAIAPIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// validate checks configured values that would otherwise fail deep in a run.
func (s *Settings) validate() error {
	for _, kind := range s.ExemptKinds {
		if _, ok := kindOrder[FindingKind(strings.ToLower(kind))]; !ok {
			return fmt.Errorf("exempt_kinds contains unknown finding kind %q", kind)
		}
	}
	if s.MaxFileSize < 0 {
		return errors.New("max_file_size must not be negative")
	}
	if s.ScanTimeoutSeconds < 0 {
		return errors.New("scan_timeout_seconds must not be negative")
	}
	return nil
}

// expandEnv resolves ${ENV_VAR} references in a configured value.
func expandEnv(raw string) string {
	if raw == "" {
		return raw
	}
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
}
