package cli

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javanstorm/vmctl/internal/output"
	"github.com/javanstorm/vmctl/internal/vm"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List VMs",
	Long: `List every VM with its resources, disk usage and status.

Disk usage is shown as allocated/logical size. VM directories that cannot
be read are left out.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listOutput    string
	listNoHeaders bool
)

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", string(output.FormatTable), "Output format (table, json, yaml)")
	listCmd.Flags().BoolVar(&listNoHeaders, "no-headers", false, "Omit the header row in table output")
}

func runList(cmd *cobra.Command, args []string) error {
	f, err := output.NewFormatter(output.Options{
		Format:    output.Format(listOutput),
		NoHeaders: listNoHeaders,
	})
	if err != nil {
		return err
	}

	home := vmHome()
	if err := home.Check(); err != nil {
		return err
	}

	inv := &vm.Inventory{Home: home, Log: logrus.StandardLogger()}
	out, err := f.FormatEntries(slices.Collect(inv.All()))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
