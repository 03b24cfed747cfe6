package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent messages",
		Long:  "List messages of the most recent months, oldest first. Unreadable months are skipped with a warning.",
		Run:   runList,
	}

	cmd.Flags().IntP("months", "m", 1, "Number of recent months to load")
	cmd.Flags().Bool("all", false, "Load every stored month")
	cmd.Flags().Bool("visible", false, "Hide deleted messages")
	cmd.Flags().StringP("room", "r", "", "Room whose memos give record messages their status (default: the current room)")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	months, _ := cmd.Flags().GetInt("months")
	all, _ := cmd.Flags().GetBool("all")
	visibleOnly, _ := cmd.Flags().GetBool("visible")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var msgs []model.Message
	if all {
		msgs, err = s.messages.ExportAll(cmd.Context())
	} else {
		msgs, err = s.messages.Paginate(cmd.Context(), months)
	}
	if err != nil {
		logger.Warn("some months could not be read", "err", err)
	}

	if visibleOnly {
		kept := msgs[:0]
		for _, m := range msgs {
			if m.Visible() {
				kept = append(kept, m)
			}
		}
		msgs = kept
	}

	if err := s.memos.AnnotateStatus(cmd.Context(), roomOrCurrent(cmd, s), msgs); err != nil {
		logger.Warn("memo status unavailable", "err", err)
	}

	if !all {
		if more, _ := s.messages.HasMore(cmd.Context(), months); more {
			logger.Info("older months available", "hint", "use --months or --all")
		}
	}
	printMessages(msgs)
}
