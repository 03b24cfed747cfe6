package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move the legacy single-key message array into monthly partitions",
		Long:  "Split the legacy message array by month and remove it. Safe to repeat; ids already present are skipped.",
		Run:   runMigrate,
	}

	RootCmd.AddCommand(cmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	report, err := s.messages.MigrateLegacy(cmd.Context())
	if err != nil {
		exitErr("migrate", err)
	}

	if formatFlag == "text" {
		fmt.Printf("migrated %d, skipped %d, months %v\n", report.Migrated, report.Skipped, report.Partitions)
		return
	}
	printJSON(report)
}
