package process

import (
	"fmt"
	"strings"
	"time"
)

// Step describes one external command supervised by the Runner.
// Steps are values and are not modified after construction.
type Step struct {
	Name     string
	Args     []string
	Env      []string      // nil inherits the parent environment
	Deadline time.Duration // 0 waits until exit or cancellation
}

// NewStep creates a step from a command line split with ParseCommand.
func NewStep(name, command string, deadline time.Duration) (Step, error) {
	args, err := ParseCommand(command)
	if err != nil {
		return Step{}, fmt.Errorf("step %s: %w", name, err)
	}
	if len(args) == 0 {
		return Step{}, fmt.Errorf("step %s: empty command", name)
	}
	return Step{Name: name, Args: args, Deadline: deadline}, nil
}

// String returns the argument vector joined by spaces.
func (s Step) String() string {
	return strings.Join(s.Args, " ")
}

// ParseCommand parses a command string into arguments.
// Handles quoted strings and basic escaping.
func ParseCommand(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	command = strings.TrimSpace(command)
	runes := []rune(command)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case (r == ' ' || r == '\t') && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		case r == '\\' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	if inQuote {
		return nil, fmt.Errorf("unclosed quote in command")
	}

	return args, nil
}
