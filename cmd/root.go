package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/dok75/clinic_backend/cmd/http"
	systemcmd "github.com/dok75/clinic_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "clinicd",
	Short: "Clinic administration backend for multi-clinic medical practices.",
	Long: `clinicd is the administration backend for multi-clinic medical practices.
It manages staff, patients, appointments, visit records and questionnaires
behind a role-scoped HTTP API, one unified deployment per installation.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
