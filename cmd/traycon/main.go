package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
	"pkt.systems/traycon/schema"
)

// Exit codes. A surface that never came up is distinguishable from every
// other failure so supervisors can tell "misconfigured listener" from
// "died while serving".
const (
	exitOK             = 0
	exitError          = 1
	exitSurfaceFailure = 3
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("traycon command failed")
		return exitCodeFor(err)
	}
	return exitOK
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "traycon",
		Short:         "Tray-resident console service with SSH and HTTP surfaces",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func exitCodeFor(err error) int {
	if errors.Is(err, schema.ErrSurfaceUnavailable) {
		return exitSurfaceFailure
	}
	return exitError
}
