package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.WorkerCount != 4 {
		t.Errorf("worker_count = %d, want 4", s.WorkerCount)
	}
	if s.MaxFilesPerBatch != 100 {
		t.Errorf("max_files_per_batch = %d, want 100", s.MaxFilesPerBatch)
	}
	if s.MaxFileSizeBytes != 1_000_000 {
		t.Errorf("max_file_size_bytes = %d", s.MaxFileSizeBytes)
	}
	if s.DefaultTraversalDepth != 5 || s.MaxTraversalDepth != 12 {
		t.Errorf("depths = %d/%d", s.DefaultTraversalDepth, s.MaxTraversalDepth)
	}
	if s.AIEnabled {
		t.Error("AI should be disabled without an api key")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "worker_count: 8\njob_poll_interval: 250ms\nfailure_threshold: 0.2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.WorkerCount != 8 {
		t.Errorf("worker_count = %d, want 8", s.WorkerCount)
	}
	if s.JobPollInterval != 250*time.Millisecond {
		t.Errorf("poll interval = %v", s.JobPollInterval)
	}
	if s.FailureThreshold != 0.2 {
		t.Errorf("failure_threshold = %v", s.FailureThreshold)
	}
	// Untouched keys keep defaults.
	if s.JobMaxAttempts != 3 {
		t.Errorf("job_max_attempts = %d, want 3", s.JobMaxAttempts)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CODEGRAPH_WORKER_COUNT", "2")
	t.Setenv("CODEGRAPH_AI_API_KEY", "sk-test")
	t.Setenv("CODEGRAPH_AI_TIMEOUT", "10s")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.WorkerCount != 2 {
		t.Errorf("worker_count = %d, want 2", s.WorkerCount)
	}
	if !s.AIEnabled {
		t.Error("api key should enable AI")
	}
	if s.AITimeout != 10*time.Second {
		t.Errorf("ai timeout = %v", s.AITimeout)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("CODEGRAPH_WORKER_COUNT", "0")
	if _, err := Load(""); err == nil {
		t.Error("expected validation error for zero workers")
	}
}
