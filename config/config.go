// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads pipeline settings from the environment.
//
// Values resolve in order of precedence: process environment, then an
// optional .env file, then the defaults embedded in the binary.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

//go:embed defaults.env
var embeddedDefaults string

// Blob and analytics backends.
const (
	BlobBadger = "badger"
	BlobGCS    = "gcs"

	AnalyticsBigQuery = "bigquery"
	AnalyticsPostgres = "postgres"

	ExtractorKeyword = "keyword"
	ExtractorLLM     = "llm"
)

// Config holds all application configuration
type Config struct {
	AppEnv string

	// Blob store
	BlobBackend        string
	BadgerPath         string
	GCSBucket          string
	GCPProject         string
	GCPCredentialsFile string

	// Analytical store
	AnalyticsBackend string
	AnalyticsTable   string
	DB               DBConfig

	// Orchestrator
	PublicURLBase string
	Workers       int
	SkipWithdrawn bool
	ClaimFolders  bool
	ClaimTTL      time.Duration
	RetryAttempts int
	RetryDelay    time.Duration

	// Logging
	LogLevel  string
	LogFormat string
	SentryDSN string

	// Text analysis
	Extractor string
	LLMHost   string
	LLMModel  string
	LLMToken  string
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads configuration. envFile may be empty; a missing file is ignored.
func Load(envFile string) (*Config, error) {
	defaults, err := godotenv.Unmarshal(embeddedDefaults)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	file := map[string]string{}
	if envFile != "" {
		file, err = godotenv.Read(envFile)
		if errors.Is(err, os.ErrNotExist) {
			file = map[string]string{}
		} else if err != nil {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	l := &loader{lookup: func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		if v, ok := file[key]; ok && v != "" {
			return v, true
		}
		v, ok := defaults[key]
		return v, ok
	}}

	cfg := &Config{
		AppEnv: l.getString("APP_ENV"),

		BlobBackend:        strings.ToLower(l.getString("BLOB_BACKEND")),
		BadgerPath:         l.getString("BADGER_PATH"),
		GCSBucket:          l.getString("GCS_BUCKET"),
		GCPProject:         l.getString("GCP_PROJECT"),
		GCPCredentialsFile: l.getString("GCP_CREDENTIALS_FILE"),

		AnalyticsBackend: strings.ToLower(l.getString("ANALYTICS_BACKEND")),
		AnalyticsTable:   l.getString("ANALYTICS_TABLE"),
		DB: DBConfig{
			Host:     l.getString("DB_HOST"),
			Port:     l.getString("DB_PORT"),
			User:     l.getString("DB_USER"),
			Password: l.getString("DB_PASSWORD"),
			Name:     l.getString("DB_NAME"),
			SSLMode:  l.getString("DB_SSLMODE"),
		},

		PublicURLBase: l.getString("PUBLIC_URL_BASE"),
		Workers:       l.getInt("WORKERS"),
		SkipWithdrawn: l.getBool("SKIP_WITHDRAWN"),
		ClaimFolders:  l.getBool("CLAIM_FOLDERS"),
		ClaimTTL:      l.getDuration("CLAIM_TTL"),
		RetryAttempts: l.getInt("RETRY_ATTEMPTS"),
		RetryDelay:    l.getDuration("RETRY_DELAY"),

		LogLevel:  strings.ToLower(l.getString("LOG_LEVEL")),
		LogFormat: strings.ToLower(l.getString("LOG_FORMAT")),
		SentryDSN: l.getString("SENTRY_DSN"),

		Extractor: strings.ToLower(l.getString("EXTRACTOR")),
		LLMHost:   l.getString("LLM_HOST"),
		LLMModel:  l.getString("LLM_MODEL"),
		LLMToken:  l.getString("LLM_TOKEN"),
	}
	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PhotoURLBase returns the prefix of public photo URLs. Without an explicit
// PUBLIC_URL_BASE, GCS deployments use the bucket's public endpoint.
func (c *Config) PhotoURLBase() string {
	if c.PublicURLBase != "" {
		return c.PublicURLBase
	}
	if c.GCSBucket != "" {
		return "https://storage.googleapis.com/" + c.GCSBucket
	}
	return ""
}

// Validate checks that the configuration is consistent.
func (c *Config) Validate() error {
	switch c.BlobBackend {
	case BlobBadger:
		if c.BadgerPath == "" {
			return errors.New("BADGER_PATH is required for the badger blob backend")
		}
	case BlobGCS:
		if c.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required for the gcs blob backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	switch c.AnalyticsBackend {
	case AnalyticsBigQuery:
		if c.GCPProject == "" {
			return errors.New("GCP_PROJECT is required for the bigquery analytics backend")
		}
	case AnalyticsPostgres:
	default:
		return fmt.Errorf("unknown ANALYTICS_BACKEND %q", c.AnalyticsBackend)
	}
	if c.AnalyticsTable == "" {
		return errors.New("ANALYTICS_TABLE cannot be empty")
	}

	switch c.Extractor {
	case ExtractorKeyword, ExtractorLLM:
	default:
		return fmt.Errorf("unknown EXTRACTOR %q", c.Extractor)
	}

	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be positive, got %d", c.RetryAttempts)
	}
	if c.ClaimTTL <= 0 {
		return fmt.Errorf("CLAIM_TTL must be positive, got %s", c.ClaimTTL)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("RETRY_DELAY must not be negative, got %s", c.RetryDelay)
	}
	return nil
}

// loader reads typed values and collects parse errors.
type loader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (l *loader) getString(key string) string {
	v, _ := l.lookup(key)
	return strings.TrimSpace(v)
}

func (l *loader) getInt(key string) int {
	v := l.getString(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
	}
	return n
}

func (l *loader) getBool(key string) bool {
	v := l.getString(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
	}
	return b
}

func (l *loader) getDuration(key string) time.Duration {
	v := l.getString(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
	}
	return d
}
