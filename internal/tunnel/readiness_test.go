package tunnel

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReady(t *testing.T) {
	tests := []struct {
		name            string
		portIsDefault   bool
		remoteDebugging bool
		want            bool
	}{
		{"ssh on default port", true, false, true},
		{"debugger moved port", false, true, true},
		{"debugger not yet applied", true, true, false},
		{"ssh not yet back", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ready(tt.portIsDefault, tt.remoteDebugging))
		})
	}
}

type stubProber struct {
	status string
	err    error
}

func (p stubProber) TunnelStatus(ctx context.Context) (string, error) {
	return p.status, p.err
}

func TestPortIsDefault(t *testing.T) {
	ok, err := PortIsDefault(context.Background(), stubProber{status: "SUCCESS:2222"}, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = PortIsDefault(context.Background(), stubProber{status: "SUCCESS:9229"}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPortIsDefault_LogsFailures(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.InfoLevel)

	ok, err := PortIsDefault(context.Background(), stubProber{status: "FAIL: container not running"}, logger)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "FAIL: container not running")
}

func TestPortIsDefault_Error(t *testing.T) {
	_, err := PortIsDefault(context.Background(), stubProber{err: errors.New("status 401")}, zerolog.Nop())
	assert.Error(t, err)
}
