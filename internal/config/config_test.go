package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DATABASE_URL", "memory://")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("DISCORD_CLIENT_ID", "")
	t.Setenv("EQUITY_TRIALS", "")
	t.Setenv("CONSISTENCY_TOLERANCE", "")
	t.Setenv("REMINDER_IDLE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.EquityTrials)
	assert.Equal(t, 0.05, cfg.ConsistencyTolerance)
	assert.Equal(t, 15.0, cfg.AdviceRiskThreshold)
	assert.Equal(t, 3*time.Hour, cfg.ReminderIdle)
	assert.False(t, cfg.OAuthEnabled())
}

func TestLoadReminderIdle(t *testing.T) {
	setRequired(t)

	t.Setenv("REMINDER_IDLE", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.ReminderIdle)

	t.Setenv("REMINDER_IDLE", "90m")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.ReminderIdle)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_URL", "memory://")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"EQUITY_TRIALS", "lots"},
		{"EQUITY_TRIALS", "0"},
		{"CONSISTENCY_TOLERANCE", "five"},
		{"CONSISTENCY_TOLERANCE", "1.5"},
		{"ADVICE_RISK_THRESHOLD", "x"},
		{"REMINDER_IDLE", "soon"},
		{"REMINDER_IDLE", "-1h"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestExtractBaseURL(t *testing.T) {
	assert.Equal(t, "https://chips.example.com", extractBaseURL("https://chips.example.com/api/auth/callback"))
	assert.Equal(t, "http://localhost:3000", extractBaseURL("::bad"))
}
