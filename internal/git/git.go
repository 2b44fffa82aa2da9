package git

import (
	"context"
	"fmt"

	"github.com/almaops/deployctl/internal/runner"
)

// Pull fast-forwards the checkout in dir to the latest revision of
// remote/branch.
func Pull(ctx context.Context, r runner.Runner, dir, remote, branch string) error {
	if dir == "" {
		return fmt.Errorf("checkout directory cannot be empty")
	}
	if remote == "" || branch == "" {
		return fmt.Errorf("remote and branch cannot be empty")
	}
	cmd := runner.Command{
		Name: "git",
		Args: []string{"pull", "--ff-only", remote, branch},
		Dir:  dir,
		// Prevent git from prompting for credentials interactively.
		Env: []string{"GIT_TERMINAL_PROMPT=0"},
	}
	if err := r.Run(ctx, cmd); err != nil {
		return fmt.Errorf("git pull failed: %w", err)
	}
	return nil
}
