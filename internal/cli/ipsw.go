package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var ipswCmd = &cobra.Command{
	Use:   "ipsw",
	Short: "Print the latest macOS restore image URL",
	Long: `Print the download URL of the latest macOS restore image this host
supports. With --output the image is downloaded to that path instead and
the path is printed. Pass the file to 'vmctl create --os macOS --ipsw'.`,
	Args: cobra.NoArgs,
	RunE: runIPSW,
}

var ipswOutput string

func init() {
	ipswCmd.Flags().StringVarP(&ipswOutput, "output", "o", "", "Download the image to this file")
}

func runIPSW(cmd *cobra.Command, args []string) error {
	driver, err := newDriver()
	if err != nil {
		return err
	}

	if ipswOutput == "" {
		url, err := driver.LatestRestoreImageURL()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	}

	dest, err := filepath.Abs(ipswOutput)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.WithField("path", dest)
	log.Info("Downloading restore image")
	progress := func(fraction float64) {
		log.Infof("Download progress: %.0f%%", fraction*100)
	}
	if err := driver.FetchLatestRestoreImage(ctx, dest, progress); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), dest)
	return nil
}
