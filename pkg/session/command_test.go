package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minv/pkg/errs"
)

func TestParseCommand_Toggle(t *testing.T) {
	cmd, err := ParseCommand("5")
	require.NoError(t, err)
	assert.Equal(t, ToggleCommand{Index: 5}, cmd)
}

func TestParseCommand_Verbs(t *testing.T) {
	cases := map[string]Command{
		"all":        SelectAllCommand{},
		"none":       DeselectAllCommand{},
		"continue":   ContinueCommand{},
		"c":          ContinueCommand{},
		"quit":       QuitCommand{},
		"q":          QuitCommand{},
		"exit":       QuitCommand{},
		"help":       HelpCommand{},
		"?":          HelpCommand{},
		"edit 3":     EditCommand{Index: 3},
		"time 3":     TimeCommand{Index: 3},
		"rate 12":    RateCommand{Index: 12},
		"setrate 1":  SetRateCommand{Index: 1},
		"assign 7":   AssignCommand{Index: 7},
		"  EDIT 3  ": EditCommand{Index: 3},
	}

	for input, want := range cases {
		cmd, err := ParseCommand(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, cmd, "input %q", input)
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "bogus", "edit", "edit x", "edit 1 2", "5 extra"} {
		_, err := ParseCommand(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, errs.IsValidation(err), "input %q", input)
	}
}
