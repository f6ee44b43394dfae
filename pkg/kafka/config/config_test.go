package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[0] != "kafka-1:9092" || cfg.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Brokers)
	}
	if cfg.ConsumerStartOffset != DefaultConsumerStartOffset {
		t.Errorf("expected start offset %d, got %d", DefaultConsumerStartOffset, cfg.ConsumerStartOffset)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvKafkaConsumerMaxRetries, "5")
	t.Setenv(EnvKafkaConsumerRetryBackoff, "1s")
	t.Setenv(EnvKafkaProducerMaxAttempts, "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ConsumerMaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.ConsumerMaxRetries)
	}
	if cfg.ConsumerRetryBackoff != time.Second {
		t.Errorf("expected 1s backoff, got %s", cfg.ConsumerRetryBackoff)
	}
	if cfg.ProducerMaxAttempts != DefaultProducerMaxAttempts {
		t.Errorf("expected default attempts, got %d", cfg.ProducerMaxAttempts)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		ProducerCompression: "brotli",
		ProducerRequireAcks: 2,
		ConsumerStartOffset: 7,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"broker", "ProducerCompression", "ProducerRequireAcks", "ConsumerStartOffset", "ConsumerMaxWait"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}
