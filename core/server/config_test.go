package server_test

import (
	"testing"
	"time"

	"brick-manager/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name  string
		cfg   server.Config
		addr  string
		read  time.Duration
		write time.Duration
	}{
		{"Defaults", server.Config{Port: "8080", ReadTimeoutSeconds: 15, WriteTimeoutSeconds: 60}, ":8080", 15 * time.Second, time.Minute},
		{"NoTimeouts", server.Config{Port: "9000"}, ":9000", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.addr, tt.cfg.Addr())
			assert.Equal(t, tt.read, tt.cfg.ReadTimeout())
			assert.Equal(t, tt.write, tt.cfg.WriteTimeout())
		})
	}
}
