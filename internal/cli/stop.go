package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javanstorm/vmctl/internal/config"
	"github.com/javanstorm/vmctl/internal/vm"
)

var stopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop a running VM",
	Long: `Ask the supervising 'vmctl run' process to stop the VM and wait for it
to exit. The supervisor requests a guest shutdown and forces the guest off
if it does not stop within the configured timeout.`,
	Args: cobra.ExactArgs(1),
	RunE: runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	dir, err := existingVM(args[0])
	if err != nil {
		return err
	}

	r := &vm.StopRequester{
		Attempts: config.Global.StopPollAttempts,
		Interval: config.Global.StopPollInterval,
		Log:      logrus.StandardLogger(),
	}
	if err := r.Stop(cmd.Context(), dir); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopped VM %s\n", dir.Name)
	return nil
}
