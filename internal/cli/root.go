// Package cli provides the command-line interface for vmctl.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javanstorm/vmctl/internal/config"
	"github.com/javanstorm/vmctl/internal/vmdir"
	"github.com/javanstorm/vmctl/pkg/hypervisor"
)

// newDriver opens the virtualization engine. Replaced in tests.
var newDriver = hypervisor.NewDriver

var debug bool

var rootCmd = &cobra.Command{
	Use:   "vmctl",
	Short: "vmctl - create, run and stop local virtual machines",
	Long: `vmctl manages local virtual machines on top of Apple's
Virtualization.framework.

Each VM is a directory under the vmctl home holding its config, a sparse
disk image and its firmware store. 'vmctl run' supervises a guest in the
foreground; 'vmctl stop' asks that supervisor to shut it down.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		switch cmd.Name() {
		case "version", "completion", "help":
			setupLogging(cmd, "info")
			return nil
		}
		if err := config.Load(); err != nil {
			return err
		}
		setupLogging(cmd, config.Global.LogLevel)
		if path := config.ConfigFileUsed(); path != "" {
			logrus.WithField("path", path).Debug("Loaded config file")
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(ipswCmd)
}

func setupLogging(cmd *cobra.Command, level string) {
	logrus.SetOutput(cmd.ErrOrStderr())
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if debug {
		lvl = logrus.DebugLevel
	}
	logrus.SetLevel(lvl)
}

func vmHome() *vmdir.Home {
	return vmdir.NewHome(config.Global.Home)
}

// existingVM resolves name and fails if no such VM has been created.
func existingVM(name string) (*vmdir.Dir, error) {
	dir, err := vmHome().Resolve(name)
	if err != nil {
		return nil, err
	}
	if !dir.Initialized() {
		return nil, fmt.Errorf("%w: vm %q does not exist", vmdir.ErrNotFound, name)
	}
	return dir, nil
}
