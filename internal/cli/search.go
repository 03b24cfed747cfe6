package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/model"
	"github.com/rcliao/memoya/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search messages by keyword",
		Long:  "Case-insensitive substring search over recent months, newest first.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by message type")
	cmd.Flags().IntP("months", "m", 0, "Months to search (default: the horizon)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("deleted", false, "Include soft-deleted messages")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	months, _ := cmd.Flags().GetInt("months")
	limit, _ := cmd.Flags().GetInt("limit")
	deleted, _ := cmd.Flags().GetBool("deleted")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	msgs, err := s.messages.Search(cmd.Context(), store.SearchParams{
		Query:          strings.Join(args, " "),
		Type:           model.MessageType(typ),
		Months:         months,
		Limit:          limit,
		IncludeDeleted: deleted,
	})
	if err != nil {
		logger.Warn("some months could not be read", "err", err)
	}
	printMessages(msgs)
}
