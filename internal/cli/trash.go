package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "List soft-deleted messages, newest first",
		Run:   runTrash,
	}

	RootCmd.AddCommand(cmd)
}

func runTrash(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	msgs, err := s.messages.Deleted(cmd.Context())
	if err != nil {
		logger.Warn("some months could not be read", "err", err)
	}
	printMessages(msgs)
}
