package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "months",
		Short: "List stored month partitions, most recent first",
		Run:   runMonths,
	}

	RootCmd.AddCommand(cmd)
}

func runMonths(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	months, err := s.messages.ListPartitions(cmd.Context())
	if err != nil {
		exitErr("list months", err)
	}
	printLines(months)
}
