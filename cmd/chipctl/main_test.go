package main

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEquityCommand(t *testing.T) {
	out, err := execute(t, "equity", "--hole", "AsAd", "--board", "Ac Kh 2c", "--opponents", "2", "--trials", "500", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "flop A♠ A♦ | A♣ K♥ 2♣, holding Three of a Kind")
	assert.Contains(t, out, "Win vs 2 opponents")
	assert.Contains(t, out, "Final hand")
	assert.Contains(t, out, "Three of a Kind")
}

func TestEquityCommandFromEnv(t *testing.T) {
	t.Setenv("CHIPCTL_HOLE", "7h 2d")
	t.Setenv("CHIPCTL_TRIALS", "200")
	out, err := execute(t, "equity")
	require.NoError(t, err)
	assert.Contains(t, out, "preflop 7♥ 2♦, holding High Card")
	assert.Contains(t, out, "Win heads-up")
}

func TestEquityCommandRejectsBadCards(t *testing.T) {
	_, err := execute(t, "equity", "--hole", "AsXx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--hole")

	_, err = execute(t, "equity", "--hole", "AsKd", "--board", "2c7h")
	assert.Error(t, err)
}

func TestSettleCommand(t *testing.T) {
	out, err := execute(t, "settle", "--ratio", "50", "alice:100:150", "bob:100:50")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "2.5")
	assert.Contains(t, out, "-2.5")
	assert.NotContains(t, out, "Unbalanced")
}

func TestSettleCommandErrors(t *testing.T) {
	_, err := execute(t, "settle", "--ratio", "50", "alice:100")
	assert.ErrorContains(t, err, "want name:bought:end")

	_, err = execute(t, "settle", "--ratio", "50", "alice:100:300", "bob:100:50")
	assert.ErrorContains(t, err, "chip totals do not match")

	_, err = execute(t, "settle", "alice:100:100")
	assert.ErrorContains(t, err, "ratio must be a positive number")
}

func TestSplitCards(t *testing.T) {
	assert.Equal(t, []string{"As", "Kd"}, splitCards("AsKd"))
	assert.Equal(t, []string{"10h", "Jc", "Qs"}, splitCards("10hJc,Qs"))
	assert.Equal(t, []string{"A♠", "K♦"}, splitCards("A♠K♦"))
	assert.Equal(t, []string{"As", "Kd"}, splitCards(" As  Kd "))
	assert.Empty(t, splitCards(""))
}
