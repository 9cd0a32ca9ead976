package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/otherjamesbrown/minv/pkg/errs"
)

// Command is a parsed operator command. The command layer switches on the
// concrete type; parsing is fully decoupled from effecting.
type Command interface {
	isCommand()
}

// ToggleCommand flips selection of meeting N ("5").
type ToggleCommand struct{ Index int }

// SelectAllCommand selects every unbilled meeting ("all").
type SelectAllCommand struct{}

// DeselectAllCommand deselects every unbilled meeting ("none").
type DeselectAllCommand struct{}

// EditCommand opens the time/duration edit flow for meeting N ("edit 5").
type EditCommand struct{ Index int }

// TimeCommand opens the start-time edit flow for meeting N ("time 5").
type TimeCommand struct{ Index int }

// RateCommand opens the custom-rate flow for meeting N ("rate 5").
type RateCommand struct{ Index int }

// SetRateCommand opens the customer default-rate flow for the customer of
// meeting N ("setrate 5").
type SetRateCommand struct{ Index int }

// AssignCommand opens the manual-assignment flow for unassociated meeting N
// ("assign 5").
type AssignCommand struct{ Index int }

// ContinueCommand leaves selection and moves to synopsis entry.
type ContinueCommand struct{}

// QuitCommand aborts the run without emitting anything.
type QuitCommand struct{}

// HelpCommand reprints the command reference.
type HelpCommand struct{}

func (ToggleCommand) isCommand()      {}
func (SelectAllCommand) isCommand()   {}
func (DeselectAllCommand) isCommand() {}
func (EditCommand) isCommand()        {}
func (TimeCommand) isCommand()        {}
func (RateCommand) isCommand()        {}
func (SetRateCommand) isCommand()     {}
func (AssignCommand) isCommand()      {}
func (ContinueCommand) isCommand()    {}
func (QuitCommand) isCommand()        {}
func (HelpCommand) isCommand()        {}

// ParseCommand parses one line of operator input into a typed command.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", errs.ErrValidation)
	}

	verb := fields[0]

	if n, err := strconv.Atoi(verb); err == nil {
		if len(fields) != 1 {
			return nil, fmt.Errorf("%w: unexpected arguments after meeting number", errs.ErrValidation)
		}
		return ToggleCommand{Index: n}, nil
	}

	switch verb {
	case "all":
		return SelectAllCommand{}, nil
	case "none":
		return DeselectAllCommand{}, nil
	case "continue", "c":
		return ContinueCommand{}, nil
	case "quit", "q", "exit":
		return QuitCommand{}, nil
	case "help", "?":
		return HelpCommand{}, nil
	}

	indexed := func(build func(int) Command) (Command, error) {
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: usage: %s <number>", errs.ErrValidation, verb)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a meeting number, got %q", errs.ErrValidation, verb, fields[1])
		}
		return build(n), nil
	}

	switch verb {
	case "edit":
		return indexed(func(n int) Command { return EditCommand{Index: n} })
	case "time":
		return indexed(func(n int) Command { return TimeCommand{Index: n} })
	case "rate":
		return indexed(func(n int) Command { return RateCommand{Index: n} })
	case "setrate":
		return indexed(func(n int) Command { return SetRateCommand{Index: n} })
	case "assign":
		return indexed(func(n int) Command { return AssignCommand{Index: n} })
	}

	return nil, fmt.Errorf("%w: unknown command %q", errs.ErrValidation, verb)
}
