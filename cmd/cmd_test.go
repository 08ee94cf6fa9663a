package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-agency/config"
)

func TestExportCommand_Flags(t *testing.T) {
	command := newExportCommand(&config.Config{ReportingDSN: "postgres://reports@db/reports"}, nil)

	dsn, err := command.Flags().GetString("dsn")
	require.NoError(t, err)
	assert.Equal(t, "postgres://reports@db/reports", dsn)

	require.NoError(t, command.Flags().Set("since", "24h"))
	since, err := command.Flags().GetDuration("since")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, since)
}

func TestExportCommand_RequiresDSN(t *testing.T) {
	command := newExportCommand(&config.Config{}, nil)
	command.SetArgs([]string{})

	err := command.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORTING_DSN")
}

func TestServeArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"app", "serve", "--http=0.0.0.0:8080"},
		serveArgs([]string{"app", "serve"}, "8080"))
	assert.Equal(t,
		[]string{"app", "serve", "--http", "127.0.0.1:9000"},
		serveArgs([]string{"app", "serve", "--http", "127.0.0.1:9000"}, "8080"))
	assert.Equal(t,
		[]string{"app", "migrate", "up"},
		serveArgs([]string{"app", "migrate", "up"}, "8080"))
}
