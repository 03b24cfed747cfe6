package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Assemble recent conversation history",
		Long:  "Collect the most recent visible user and assistant turns, newest first, until the turn limit or character budget is reached.",
		Run:   runContext,
	}

	cmd.Flags().IntP("months", "m", 1, "Months to draw from")
	cmd.Flags().IntP("limit", "l", 10, "Max turns")
	cmd.Flags().IntP("budget", "b", 8000, "Max characters of text")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	months, _ := cmd.Flags().GetInt("months")
	limit, _ := cmd.Flags().GetInt("limit")
	budget, _ := cmd.Flags().GetInt("budget")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	result, err := s.messages.Context(cmd.Context(), store.ContextParams{
		Months: months,
		Limit:  limit,
		Budget: budget,
	})
	if err != nil {
		if result == nil {
			exitErr("context", err)
		}
		logger.Warn("some months could not be read", "err", err)
	}

	if formatFlag == "text" {
		printMessages(result.Messages)
		return
	}
	printJSON(result)
}
