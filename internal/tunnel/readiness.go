package tunnel

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Ready reports whether the tunnel can be opened. The container moves off its
// default SSH port exactly when remote debugging gets enabled, so readiness is
// reached when the two flags disagree.
func Ready(portIsDefault, remoteDebugging bool) bool {
	return portIsDefault != remoteDebugging
}

// StatusProber fetches the status message of the tunnel endpoint
type StatusProber interface {
	TunnelStatus(ctx context.Context) (string, error)
}

// PortIsDefault asks the tunnel endpoint whether the container still uses the
// default SSH port
func PortIsDefault(ctx context.Context, prober StatusProber, logger zerolog.Logger) (bool, error) {
	status, err := prober.TunnelStatus(ctx)
	if err != nil {
		return false, err
	}

	if strings.Contains(status, "FAIL") {
		logger.Info().Msg(status)
	}

	return strings.Contains(status, defaultSSHPort), nil
}
