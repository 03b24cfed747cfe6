package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/assistant"
	"github.com/rcliao/memoya/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send a message to the assistant",
		Long: "Store the message, send it with recent history to the assistant, and store the reply.\n" +
			"Memo tools the assistant calls run against the room's memos. Saves and deletes are\n" +
			"only proposed unless --approve is given. Requires ANTHROPIC_API_KEY.",
		Args: cobra.MinimumNArgs(1),
		Run:  runAsk,
	}

	cmd.Flags().StringP("room", "r", "", "Room id (default: the current room)")
	cmd.Flags().Bool("approve", false, "Apply memo saves and deletes the assistant proposes")

	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	if !cfg.AssistantEnabled() {
		exitErr("ask", fmt.Errorf("ANTHROPIC_API_KEY is not set"))
	}
	approve, _ := cmd.Flags().GetBool("approve")
	text := strings.Join(args, " ")
	ctx := cmd.Context()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	roomID := roomOrCurrent(cmd, s)
	// Two months so a conversation that crosses a month boundary keeps its history.
	history, err := s.messages.Paginate(ctx, 2)
	if err != nil {
		logger.Warn("some months could not be read", "err", err)
	}

	if _, err := s.messages.Append(ctx, model.Message{Text: text, Type: model.TypeUser}); err != nil {
		exitErr("store message", err)
	}

	exec := s.executor()
	client := assistant.New(exec, assistant.Options{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		Model:        cfg.Model,
		MaxTokens:    int64(cfg.MaxTokens),
		HistoryLimit: cfg.HistoryLimit,
		Logger:       logger,
	})
	reply, err := client.Send(ctx, roomID, text, history)
	if err != nil {
		exitErr("ask", err)
	}

	saved, err := s.messages.Append(ctx, reply.Message)
	if err != nil {
		exitErr("store reply", err)
	}
	reply.Message = saved

	// The question and the reply.
	if _, err := s.rooms.RecordMessages(ctx, roomID, 2, &model.LastMessage{
		Text:      preview(saved.Text, 80),
		Type:      saved.Type,
		Timestamp: saved.Timestamp,
	}); err != nil {
		logger.Debug("room preview not updated", "room", roomID, "err", err)
	}

	if approve {
		for _, action := range reply.Pending {
			res := exec.Approve(ctx, action)
			logger.Info("applied", "action", action.Description, "success", res.Success)
		}
		if len(reply.Pending) > 0 {
			syncMemoCount(cmd, s, roomID)
			reply.Pending = nil
		}
	}

	if formatFlag == "text" {
		fmt.Println(renderMessage(saved))
		for _, a := range reply.Pending {
			fmt.Println(styleWarn.Render("pending: "+a.Description), styleDim.Render(fmt.Sprintf("(apply with: memoya tool %s '%s' --approve)", a.Tool, a.Args)))
		}
		return
	}
	printJSON(reply)
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
