package config

import "testing"

func TestValidateConfigRequiresConnectionString(t *testing.T) {
	cfg := &Config{}
	cfg.Queue.URL = "nats://localhost:4222"
	cfg.AI.Gemini.APIKey = "key"
	cfg.Clustering.MinClusterSize = 2
	if err := validateConfig(cfg); err == nil {
		t.Errorf("expected error for missing database.connection_string")
	}
}

func TestValidateConfigRequiresQueueURL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.ConnectionString = "postgres://localhost/saveit"
	cfg.AI.Gemini.APIKey = "key"
	cfg.Clustering.MinClusterSize = 2
	if err := validateConfig(cfg); err == nil {
		t.Errorf("expected error for missing queue.url")
	}
}

func TestValidateConfigAccepts(t *testing.T) {
	cfg := &Config{}
	cfg.Database.ConnectionString = "postgres://localhost/saveit"
	cfg.Queue.URL = "nats://localhost:4222"
	cfg.AI.Gemini.APIKey = "key"
	cfg.Clustering.MinClusterSize = 2
	if err := validateConfig(cfg); err != nil {
		t.Errorf("expected valid config to pass, got %v", err)
	}
}

func TestValidateConfigRejectsZeroMinClusterSize(t *testing.T) {
	cfg := &Config{}
	cfg.Database.ConnectionString = "postgres://localhost/saveit"
	cfg.Queue.URL = "nats://localhost:4222"
	cfg.AI.Gemini.APIKey = "key"
	cfg.Clustering.MinClusterSize = 0
	if err := validateConfig(cfg); err == nil {
		t.Errorf("expected error for min_cluster_size < 1")
	}
}
