package handlers

import "testing"

func TestCommandRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  Command
	}{
		{"open task", Command{Kind: CommandOpenTask, InstanceID: 42}},
		{"cancel answer", Command{Kind: CommandCancelAnswer}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			parsed, err := ParseCommand(tc.cmd.Encode())
			if err != nil {
				t.Fatalf("ParseCommand(%q) failed: %v", tc.cmd.Encode(), err)
			}
			if parsed != tc.cmd {
				t.Errorf("round trip = %+v, want %+v", parsed, tc.cmd)
			}
		})
	}
}

func TestParseCommandRejectsGarbage(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"task",
		"task:",
		"task:open",
		"task:open:abc",
		"task:open:-5",
		"task:open:1:extra",
		"task:unknown",
		"other:open:1",
	}

	for _, input := range inputs {
		if _, err := ParseCommand(input); err == nil {
			t.Errorf("ParseCommand(%q) accepted malformed data", input)
		}
	}
}
