package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes: 0 success (including nothing to remove), 1 fatal
// operational error, 2 invalid argument.
const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

var (
	// errUsage marks invalid arguments; main exits 2.
	errUsage = errors.New("invalid usage")
	// errReported marks errors already emitted through the structured
	// logger; main must not print them again.
	errReported = errors.New("already reported")
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, err)
	}
	if errors.Is(err, errUsage) {
		return exitUsage
	}
	return exitFatal
}
