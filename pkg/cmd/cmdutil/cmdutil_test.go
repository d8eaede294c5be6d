package cmdutil

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, log.WarnLevel, ParseLogLevel("warn", log.InfoLevel))
	assert.Equal(t, log.InfoLevel, ParseLogLevel("loud", log.InfoLevel))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseDuration("3s", time.Second))
	assert.Equal(t, time.Second, ParseDuration("soon", time.Second))
}

func TestSetupLoggerRejectsBadFilter(t *testing.T) {
	old := config.LogFilter
	defer func() { config.LogFilter = old }()
	config.LogFilter = "loud:*"
	_, _, err := SetupLogger()
	assert.Error(t, err)
}

func TestWaitForRequiredServices(t *testing.T) {
	old := config.WaitForServices
	defer func() { config.WaitForServices = old }()
	config.WaitForServices = "300ms"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	assert.NoError(t, WaitForRequiredServices(ln.Addr().String(), ""))

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := closed.Addr().String()
	closed.Close()
	assert.Error(t, WaitForRequiredServices(ln.Addr().String(), addr))
}
