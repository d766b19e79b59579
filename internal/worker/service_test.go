package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/dujiao-next/ledger-engine/internal/config"
)

func TestNewServiceRequiresEnabledQueue(t *testing.T) {
	if _, err := NewService(nil, &Consumer{}); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("nil config should be disabled, got %v", err)
	}
	if _, err := NewService(&config.QueueConfig{Enabled: false}, &Consumer{}); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("disabled queue should be rejected, got %v", err)
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, nil); err == nil {
		t.Fatalf("nil consumer should be rejected")
	}
}

func TestServiceNameAndNilLifecycle(t *testing.T) {
	svc, err := NewService(&config.QueueConfig{Enabled: true, Host: "127.0.0.1", Port: 6379}, &Consumer{})
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	if svc.Name() != "worker" {
		t.Fatalf("unexpected service name: %s", svc.Name())
	}

	var empty *Service
	if err := empty.Start(context.Background()); err == nil {
		t.Fatalf("uninitialized worker should not start")
	}
	if err := empty.Stop(context.Background()); err != nil {
		t.Fatalf("stopping nil worker should be a no-op, got %v", err)
	}
}
