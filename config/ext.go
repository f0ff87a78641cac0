package config

import (
	"os/exec"
)

// Command is an argv slice, the first element being the executable.
type Command []string

func (s Command) Empty() bool {
	return len(s) == 0
}

func (s Command) ToCommand() (*exec.Cmd, error) {
	if len(s) == 0 {
		return nil, nil
	}

	return exec.Command(s[0], s[1:]...), nil
}
