package handlers

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind enumerates the typed callback commands the bot understands.
// Callback data is parsed into a Command once, here; handlers never inspect
// raw callback strings.
type CommandKind int

const (
	// CommandOpenTask opens a pending task for answer entry.
	CommandOpenTask CommandKind = iota

	// CommandCancelAnswer discards the in-progress answer entry.
	CommandCancelAnswer
)

// callbackPrefix namespaces all of crewbot's callback data.
const callbackPrefix = "task"

// Command is a parsed callback command.
type Command struct {
	Kind       CommandKind
	InstanceID int64
}

// Encode renders the command as callback data.
func (c Command) Encode() string {
	switch c.Kind {
	case CommandOpenTask:
		return fmt.Sprintf("%s:open:%d", callbackPrefix, c.InstanceID)
	case CommandCancelAnswer:
		return callbackPrefix + ":cancel"
	default:
		return callbackPrefix + ":unknown"
	}
}

// ParseCommand parses callback data into a typed Command.
func ParseCommand(data string) (Command, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 || parts[0] != callbackPrefix {
		return Command{}, fmt.Errorf("unrecognized callback data %q", data)
	}

	switch parts[1] {
	case "open":
		if len(parts) != 3 {
			return Command{}, fmt.Errorf("malformed open command %q", data)
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || id <= 0 {
			return Command{}, fmt.Errorf("malformed instance id in %q", data)
		}
		return Command{Kind: CommandOpenTask, InstanceID: id}, nil

	case "cancel":
		return Command{Kind: CommandCancelAnswer}, nil

	default:
		return Command{}, fmt.Errorf("unrecognized callback command %q", data)
	}
}
