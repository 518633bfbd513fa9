package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javanstorm/vmctl/internal/config"
	"github.com/javanstorm/vmctl/internal/vm"
)

// exitProcess ends the supervisor once the guest has stopped. Replaced in tests.
var exitProcess = os.Exit

var runCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a VM in the foreground",
	Long: `Boot the VM and supervise it until it stops.

Ctrl+C or SIGTERM asks the guest to shut down; a guest that does not stop
within the configured timeout is forced off. The exit status is 0 when the
guest stopped and 1 when it could not be stopped or failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	dir, err := existingVM(args[0])
	if err != nil {
		return err
	}

	driver, err := newDriver()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &vm.Supervisor{
		Driver:      driver,
		StopTimeout: config.Global.StopTimeout,
		Log:         logrus.StandardLogger(),
		Exit:        exitProcess,
	}
	return s.Run(ctx, dir)
}
