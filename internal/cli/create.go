package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javanstorm/vmctl/internal/config"
	"github.com/javanstorm/vmctl/internal/vm"
	"github.com/javanstorm/vmctl/internal/vmdir"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new VM",
	Long: `Create a new VM directory with a sparse disk image and firmware store.

Linux guests boot through EFI. macOS guests are created from a restore
image (.ipsw), see 'vmctl ipsw'. Nothing is visible under the vmctl home
until every artifact has been written.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var (
	createOS       string
	createDiskSize uint64
	createIPSW     string
)

func init() {
	createCmd.Flags().StringVar(&createOS, "os", string(vmdir.Linux), "Guest operating system (linux or macOS)")
	createCmd.Flags().Uint64Var(&createDiskSize, "disk-size", 0, "Disk size in GB (default from config, 50)")
	createCmd.Flags().StringVar(&createIPSW, "ipsw", "", "Path to the macOS restore image")
}

func runCreate(cmd *cobra.Command, args []string) error {
	guestOS, err := vmdir.ParseOS(createOS)
	if err != nil {
		return err
	}
	size := config.Global.DefaultDiskSizeGB
	if cmd.Flags().Changed("disk-size") {
		size = createDiskSize
	}

	driver, err := newDriver()
	if err != nil {
		return err
	}

	creator := &vm.Creator{Home: vmHome(), Driver: driver, Log: logrus.StandardLogger()}
	dir, err := creator.Create(cmd.Context(), vm.CreateOptions{
		Name:         args[0],
		OS:           guestOS,
		DiskSizeGB:   size,
		RestoreImage: createIPSW,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created VM %s in %s\n", dir.Name, dir.Path)
	return nil
}
