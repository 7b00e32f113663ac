// Package config loads engine settings from defaults, an optional YAML file,
// and CODEGRAPH_* environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds all tunables consumed by the engine.
type Settings struct {
	DBPath string

	WorkerCount     int
	JobPollInterval time.Duration
	JobMaxAttempts  int
	JobLockTimeout  time.Duration

	MaxFilesPerBatch int
	MaxFileSizeBytes int64
	ParseTimeout     time.Duration
	FailureThreshold float64

	DefaultTraversalDepth int
	MaxTraversalDepth     int

	AIBaseURL string
	AIAPIKey  string
	AIModel   string
	AITimeout time.Duration
	AIEnabled bool
}

// yamlSettings mirrors Settings for file decoding; durations are strings in
// Go duration syntax ("250ms", "1m"). Pointer fields distinguish "absent"
// from zero values.
type yamlSettings struct {
	DBPath                *string  `yaml:"db_path"`
	WorkerCount           *int     `yaml:"worker_count"`
	JobPollInterval       *string  `yaml:"job_poll_interval"`
	JobMaxAttempts        *int     `yaml:"job_max_attempts"`
	JobLockTimeout        *string  `yaml:"job_lock_timeout"`
	MaxFilesPerBatch      *int     `yaml:"max_files_per_batch"`
	MaxFileSizeBytes      *int64   `yaml:"max_file_size_bytes"`
	ParseTimeout          *string  `yaml:"parse_timeout"`
	FailureThreshold      *float64 `yaml:"failure_threshold"`
	DefaultTraversalDepth *int     `yaml:"default_traversal_depth"`
	MaxTraversalDepth     *int     `yaml:"max_traversal_depth"`
	AIBaseURL             *string  `yaml:"ai_base_url"`
	AIAPIKey              *string  `yaml:"ai_api_key"`
	AIModel               *string  `yaml:"ai_model"`
	AITimeout             *string  `yaml:"ai_timeout"`
	AIEnabled             *bool    `yaml:"ai_enabled"`
}

// Defaults returns the baseline settings.
func Defaults() *Settings {
	return &Settings{
		WorkerCount:           4,
		JobPollInterval:       time.Second,
		JobMaxAttempts:        3,
		JobLockTimeout:        5 * time.Minute,
		MaxFilesPerBatch:      100,
		MaxFileSizeBytes:      1_000_000,
		ParseTimeout:          30 * time.Second,
		FailureThreshold:      0.5,
		DefaultTraversalDepth: 5,
		MaxTraversalDepth:     12,
		AIModel:               "gpt-4o-mini",
		AITimeout:             60 * time.Second,
	}
}

// Load builds Settings from defaults, then the YAML file at path (skipped
// when path is empty or missing), then environment variables.
func Load(path string) (*Settings, error) {
	s := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var y yamlSettings
			if err := yaml.Unmarshal(data, &y); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			if err := s.applyYAML(&y); err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	s.applyEnv()
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) applyYAML(y *yamlSettings) error {
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setDur := func(dst *time.Duration, v *string) error {
		if v == nil {
			return nil
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("bad duration %q: %w", *v, err)
		}
		*dst = d
		return nil
	}

	setStr(&s.DBPath, y.DBPath)
	setInt(&s.WorkerCount, y.WorkerCount)
	setInt(&s.JobMaxAttempts, y.JobMaxAttempts)
	setInt(&s.MaxFilesPerBatch, y.MaxFilesPerBatch)
	setInt(&s.DefaultTraversalDepth, y.DefaultTraversalDepth)
	setInt(&s.MaxTraversalDepth, y.MaxTraversalDepth)
	setStr(&s.AIBaseURL, y.AIBaseURL)
	setStr(&s.AIAPIKey, y.AIAPIKey)
	setStr(&s.AIModel, y.AIModel)
	if y.MaxFileSizeBytes != nil {
		s.MaxFileSizeBytes = *y.MaxFileSizeBytes
	}
	if y.FailureThreshold != nil {
		s.FailureThreshold = *y.FailureThreshold
	}
	if y.AIEnabled != nil {
		s.AIEnabled = *y.AIEnabled
	}
	if err := setDur(&s.JobPollInterval, y.JobPollInterval); err != nil {
		return err
	}
	if err := setDur(&s.JobLockTimeout, y.JobLockTimeout); err != nil {
		return err
	}
	if err := setDur(&s.ParseTimeout, y.ParseTimeout); err != nil {
		return err
	}
	return setDur(&s.AITimeout, y.AITimeout)
}

func (s *Settings) applyEnv() {
	envStr("CODEGRAPH_DB_PATH", &s.DBPath)
	envInt("CODEGRAPH_WORKER_COUNT", &s.WorkerCount)
	envDuration("CODEGRAPH_JOB_POLL_INTERVAL", &s.JobPollInterval)
	envInt("CODEGRAPH_JOB_MAX_ATTEMPTS", &s.JobMaxAttempts)
	envDuration("CODEGRAPH_JOB_LOCK_TIMEOUT", &s.JobLockTimeout)
	envInt("CODEGRAPH_MAX_FILES_PER_BATCH", &s.MaxFilesPerBatch)
	envInt64("CODEGRAPH_MAX_FILE_SIZE_BYTES", &s.MaxFileSizeBytes)
	envDuration("CODEGRAPH_PARSE_TIMEOUT", &s.ParseTimeout)
	envFloat("CODEGRAPH_FAILURE_THRESHOLD", &s.FailureThreshold)
	envInt("CODEGRAPH_DEFAULT_TRAVERSAL_DEPTH", &s.DefaultTraversalDepth)
	envInt("CODEGRAPH_MAX_TRAVERSAL_DEPTH", &s.MaxTraversalDepth)
	envStr("CODEGRAPH_AI_BASE_URL", &s.AIBaseURL)
	envStr("CODEGRAPH_AI_API_KEY", &s.AIAPIKey)
	envStr("CODEGRAPH_AI_MODEL", &s.AIModel)
	envDuration("CODEGRAPH_AI_TIMEOUT", &s.AITimeout)
	if v := os.Getenv("CODEGRAPH_AI_ENABLED"); v != "" {
		s.AIEnabled = v == "1" || v == "true"
	}
	if s.AIAPIKey != "" {
		s.AIEnabled = true
	}
}

func (s *Settings) validate() error {
	if s.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be >= 1, got %d", s.WorkerCount)
	}
	if s.MaxFilesPerBatch < 1 {
		return fmt.Errorf("max_files_per_batch must be >= 1, got %d", s.MaxFilesPerBatch)
	}
	if s.FailureThreshold < 0 || s.FailureThreshold > 1 {
		return fmt.Errorf("failure_threshold must be in [0,1], got %v", s.FailureThreshold)
	}
	if s.DefaultTraversalDepth < 1 || s.DefaultTraversalDepth > s.MaxTraversalDepth {
		return fmt.Errorf("default_traversal_depth %d out of range (max %d)",
			s.DefaultTraversalDepth, s.MaxTraversalDepth)
	}
	return nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
