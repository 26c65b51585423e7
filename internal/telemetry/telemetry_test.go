package telemetry

import (
	"context"
	"testing"
)

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.Enabled {
		t.Error("expected disabled provider")
	}

	counter, err := p.Meter().Int64Counter("band_name_checks")
	if err != nil {
		t.Fatalf("noop meter should create instruments: %v", err)
	}
	counter.Add(context.Background(), 1)

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown of noop provider failed: %v", err)
	}
}

func TestProvider_NilSafe(t *testing.T) {
	var p *Provider
	if p.Meter() == nil {
		t.Error("nil provider should hand out a noop meter")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider Shutdown returned %v", err)
	}
}
