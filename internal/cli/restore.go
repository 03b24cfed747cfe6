package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a soft-deleted message",
		Args:  cobra.ExactArgs(1),
		Run:   runRestore,
	}

	RootCmd.AddCommand(cmd)
}

func runRestore(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := s.messages.Restore(cmd.Context(), args[0])
	if err != nil {
		exitErr("restore", err)
	}
	printResult("restore", args[0], res)
}
