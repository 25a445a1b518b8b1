package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestCLI(t *testing.T, cmds ...*testCommand) *CLI {
	t.Helper()
	c, err := New(nil)
	if err != nil {
		t.Fatalf("failed to create cli: %v", err)
	}
	for _, cmd := range cmds {
		if err := c.Register(cmd); err != nil {
			t.Fatalf("failed to register %s: %v", cmd.name, err)
		}
	}
	return c
}

func TestCLI_Exec(t *testing.T) {
	cmd := &testCommand{name: "test", group: "queue"}
	c := newTestCLI(t, cmd)

	err := c.Exec(context.Background(), nil, &bytes.Buffer{}, []string{"test", "-verbose", "a", "b"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cmd.validated || !cmd.executed {
		t.Error("expected the command to be validated and executed")
	}
	if !cmd.verbose {
		t.Error("expected the flag to be parsed")
	}
	if strings.Join(cmd.args, ",") != "a,b" {
		t.Errorf("expected positional args a,b, got %v", cmd.args)
	}
}

func TestCLI_ExecErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		cmd  *testCommand
		args []string
		want error
	}{
		{"no args", &testCommand{name: "test"}, nil, ErrNoCommandSpecified},
		{"unknown", &testCommand{name: "test"}, []string{"other"}, ErrUnknownCommand},
		{"bad flag", &testCommand{name: "test"}, []string{"test", "-nope"}, ErrFlagParse},
		{"validation", &testCommand{name: "test", validateErr: boom}, []string{"test"}, ErrCommandValidation},
		{"execution", &testCommand{name: "test", executeErr: boom}, []string{"test"}, ErrCommandExecution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(t, tt.cmd)
			err := c.Exec(context.Background(), nil, &bytes.Buffer{}, tt.args)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCLI_ValidationStopsExecution(t *testing.T) {
	cmd := &testCommand{name: "test", validateErr: errors.New("invalid")}
	c := newTestCLI(t, cmd)

	_ = c.Exec(context.Background(), nil, &bytes.Buffer{}, []string{"test"})
	if cmd.executed {
		t.Error("expected execution to be skipped")
	}
}

func TestCLI_ExecutionKeepsCause(t *testing.T) {
	boom := errors.New("boom")
	c := newTestCLI(t, &testCommand{name: "test", executeErr: boom})

	err := c.Exec(context.Background(), nil, &bytes.Buffer{}, []string{"test"})
	if !errors.Is(err, boom) {
		t.Errorf("expected the cause to be wrapped, got %v", err)
	}
}

func TestCLI_CanceledContext(t *testing.T) {
	cmd := &testCommand{name: "test"}
	c := newTestCLI(t, cmd)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Exec(ctx, nil, &bytes.Buffer{}, []string{"test"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if cmd.validated {
		t.Error("expected the command not to run")
	}
}

func TestContext_ArgsAreCopied(t *testing.T) {
	args := []string{"a"}
	ctx := NewContext(nil, nil, nil, args)
	args[0] = "changed"

	got := ctx.Args()
	if got[0] != "a" {
		t.Errorf("expected a, got %s", got[0])
	}
	got[0] = "mutated"
	if ctx.Args()[0] != "a" {
		t.Error("expected Args to return a copy")
	}
	if ctx.Context() == nil {
		t.Error("expected a background context")
	}
}
