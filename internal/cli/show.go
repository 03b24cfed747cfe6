package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one message",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	cmd.Flags().StringP("room", "r", "", "Room whose memos give a record message its status (default: the current room)")

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	msg, res, err := s.messages.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("show", err)
	}
	if !res.Found() {
		exitErr("show", fmt.Errorf("message %s not found within %d months", args[0], s.messages.Horizon()))
	}

	one := []model.Message{*msg}
	if err := s.memos.AnnotateStatus(cmd.Context(), roomOrCurrent(cmd, s), one); err != nil {
		logger.Warn("memo status unavailable", "err", err)
	}
	msg = &one[0]

	if formatFlag == "text" {
		fmt.Println(renderMessage(*msg))
		return
	}
	printJSON(msg)
}
