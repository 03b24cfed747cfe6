package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Append a message",
		Long:  "Append a message to the partition of its timestamp (now unless --at is given).",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAdd,
	}

	cmd.Flags().StringP("type", "t", "user", "Message type: user, ai, memo or record")
	cmd.Flags().String("at", "", "Timestamp, RFC 3339 or YYYY-MM-DD")
	cmd.Flags().Bool("favorite", false, "Mark as favorite")
	cmd.Flags().Bool("memory", false, "Mark as memory")

	RootCmd.AddCommand(cmd)
}

func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want RFC 3339 or YYYY-MM-DD)", s)
}

func runAdd(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	at, _ := cmd.Flags().GetString("at")
	fav, _ := cmd.Flags().GetBool("favorite")
	mem, _ := cmd.Flags().GetBool("memory")

	msg := model.Message{
		Text:       strings.Join(args, " "),
		Type:       model.MessageType(typ),
		IsFavorite: fav,
		IsMemory:   mem,
	}
	if at != "" {
		t, err := parseWhen(at)
		if err != nil {
			exitErr("parse --at", err)
		}
		msg.Timestamp = t
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	saved, err := s.messages.Append(cmd.Context(), msg)
	if err != nil {
		exitErr("add", err)
	}

	if formatFlag == "text" {
		fmt.Println(renderMessage(saved))
		return
	}
	printJSON(saved)
}
