package sweep

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Remover deletes one first-level entry.
type Remover interface {
	Remove(ctx context.Context, path string) error
}

type commandRemover struct{}

// NewRemover creates a remover that shells out to rm -rf, matching the
// forced, no-confirmation semantics the cleanup needs.
func NewRemover() Remover {
	return commandRemover{}
}

func (commandRemover) Remove(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "rm", "-rf", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("failed to remove %s: %s", path, strings.ReplaceAll(detail, "\n", "; "))
	}
	return nil
}
