package action

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// ExecRunner starts programs without a shell. Run returns once the program
// has started; its exit is logged.
type ExecRunner struct {
	Logger zerolog.Logger
}

func (r ExecRunner) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("no program given")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", argv[0], err)
	}

	// Not tied to ctx: a launched program outlives the hotkey that started it.
	cmd := exec.Command(path, argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	r.Logger.Debug().Int("pid", cmd.Process.Pid).Str("program", argv[0]).Msg("Started program")

	go func() {
		if err := cmd.Wait(); err != nil {
			r.Logger.Warn().Err(err).Str("program", argv[0]).Msg("Program exited with error")
		}
	}()
	return nil
}
