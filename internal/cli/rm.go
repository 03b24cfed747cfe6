package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a message",
		Long:  "Soft-delete a message. --hard marks it permanently deleted; --purge removes it from storage.",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	cmd.Flags().Bool("hard", false, "Mark permanently deleted (hidden from trash)")
	cmd.Flags().Bool("purge", false, "Remove from storage (irreversible)")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	hard, _ := cmd.Flags().GetBool("hard")
	purge, _ := cmd.Flags().GetBool("purge")
	if hard && purge {
		exitErr("rm", fmt.Errorf("--hard and --purge are exclusive"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var res store.Result
	op := "delete"
	switch {
	case purge:
		op = "purge"
		res, err = s.messages.Purge(cmd.Context(), args[0])
	case hard:
		op = "permanent_delete"
		res, err = s.messages.MarkPermanentlyDeleted(cmd.Context(), args[0])
	default:
		res, err = s.messages.SoftDelete(cmd.Context(), args[0])
	}
	if err != nil {
		exitErr("rm", err)
	}
	printResult(op, args[0], res)
}
