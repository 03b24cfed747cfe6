package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every message partition and the legacy key",
		Long:  "Remove all stored messages. Rooms and memos are kept. Requires --yes.",
		Run:   runClear,
	}

	cmd.Flags().Bool("yes", false, "Confirm")

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		exitErr("clear", fmt.Errorf("refusing without --yes"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.messages.Clear(cmd.Context()); err != nil {
		exitErr("clear", err)
	}
	fmt.Println(`{"ok":true}`)
}
