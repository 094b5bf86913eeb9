package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesLevel(t *testing.T) {
	var buf bytes.Buffer
	b, err := New(&buf, "warn")
	require.NoError(t, err)

	b.Logger("LDGR").Infof("hidden")
	b.Logger("LDGR").Warnf("shown %d", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WRN] LDGR: shown 1")

	b.Logger("MAIN").Infof("main up")
	assert.Contains(t, buf.String(), "MAIN: main up")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud")
	require.Error(t, err)
}

func TestSubsystems(t *testing.T) {
	assert.Equal(t, []string{"API", "BOT", "CMDS", "DB", "EQTY", "LDGR", "SESS", "VISN"}, Subsystems())
}
