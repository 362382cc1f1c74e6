package bootstrap

import (
	"testing"

	"github.com/lodgeworks/lodge-api/config"
)

func enabledModes(modes ...config.ServiceMode) map[config.ServiceMode]bool {
	m := make(map[config.ServiceMode]bool, len(modes))
	for _, mode := range modes {
		m[mode] = true
	}
	return m
}

func TestErrorChannelCapacity(t *testing.T) {
	if got := errorChannelCapacity(enabledModes()); got != 0 {
		t.Fatalf("no services: capacity = %d, want 0", got)
	}
	if got := errorChannelCapacity(enabledModes(config.ServiceModeHTTP)); got != 1 {
		t.Fatalf("http only: capacity = %d, want 1", got)
	}
	if got := errorChannelCapacity(enabledModes(config.ServiceModeExpiry)); got != 1 {
		t.Fatalf("expiry only: capacity = %d, want 1", got)
	}
	if got := errorChannelCapacity(enabledModes(config.ServiceModeHTTP, config.ServiceModeExpiry)); got != 2 {
		t.Fatalf("both services: capacity = %d, want 2", got)
	}
}

func TestErrorChannelBufferSize(t *testing.T) {
	// One slot per running service plus one spare, so a service failing
	// during shutdown never blocks on send.
	tests := []struct {
		name  string
		modes map[config.ServiceMode]bool
		want  int
	}{
		{"no services enabled", enabledModes(), 1},
		{"http only", enabledModes(config.ServiceModeHTTP), 2},
		{"all services enabled", enabledModes(config.ServiceModeHTTP, config.ServiceModeExpiry), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorChannelBufferSize(tt.modes); got != tt.want {
				t.Fatalf("errorChannelBufferSize() = %d, want %d", got, tt.want)
			}
		})
	}
}
