package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/memo"
	"github.com/rcliao/memoya/internal/model"
	"github.com/rcliao/memoya/internal/room"
)

func init() {
	memoCmd := &cobra.Command{
		Use:   "memo",
		Short: "Manage a room's memos",
	}
	memoCmd.PersistentFlags().StringP("room", "r", "", "Room id (default: the current room)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active memos, newest first",
		Run:   runMemoList,
	}
	listCmd.Flags().Bool("trashed", false, "List the trash instead")

	addCmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a memo",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMemoAdd,
	}
	addCmd.Flags().String("title", "", "Memo title")
	addCmd.Flags().Bool("favorite", false, "Mark as favorite")

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a memo",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoEdit,
	}
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().String("content", "", "New content")
	editCmd.Flags().Bool("favorite", false, "Set or clear the favorite flag")

	trashCmd := &cobra.Command{
		Use:   "trash <id>",
		Short: "Move a memo to the trash",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoTrash,
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a memo from the trash",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoRestore,
	}

	purgeCmd := &cobra.Command{
		Use:   "purge <id>",
		Short: "Remove a trashed memo for good",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoPurge,
	}

	memoCmd.AddCommand(listCmd, addCmd, editCmd, trashCmd, restoreCmd, purgeCmd)
	RootCmd.AddCommand(memoCmd)
}

func printMemos(memos []model.Memo) {
	if formatFlag != "text" {
		printJSON(memos)
		return
	}
	for _, m := range memos {
		star := ""
		if m.IsFavorite {
			star = " ★"
		}
		title := ""
		if m.Title != "" {
			title = styleHeader.Render(m.Title) + " "
		}
		fmt.Printf("%s %s%s %s%s\n",
			styleDim.Render(m.Timestamp.Local().Format("2006-01-02 15:04")),
			styleID.Render(m.ID), star, title, m.Content)
	}
}

// syncMemoCount refreshes the room's memo counter after a change.
func syncMemoCount(cmd *cobra.Command, s *stores, roomID string) {
	memos, err := s.memos.List(cmd.Context(), roomID)
	if err != nil {
		return
	}
	n := len(memos)
	if _, err := s.rooms.UpdateMetadata(cmd.Context(), roomID, room.Metadata{MemoCount: &n}); err != nil {
		logger.Debug("memo count not updated", "room", roomID, "err", err)
	}
}

func runMemoList(cmd *cobra.Command, args []string) {
	trashed, _ := cmd.Flags().GetBool("trashed")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	roomID := roomOrCurrent(cmd, s)
	var memos []model.Memo
	if trashed {
		memos, err = s.memos.Trashed(cmd.Context(), roomID)
	} else {
		memos, err = s.memos.List(cmd.Context(), roomID)
	}
	if err != nil {
		exitErr("list memos", err)
	}
	printMemos(memos)
}

func runMemoAdd(cmd *cobra.Command, args []string) {
	title, _ := cmd.Flags().GetString("title")
	fav, _ := cmd.Flags().GetBool("favorite")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	roomID := roomOrCurrent(cmd, s)
	m, err := s.memos.Add(cmd.Context(), roomID, model.Memo{
		Content:    strings.Join(args, " "),
		Title:      title,
		IsFavorite: fav,
	})
	if err != nil {
		exitErr("add memo", err)
	}
	// The record message shares the memo id so its status follows the memo.
	rec, err := s.messages.Append(cmd.Context(), model.Message{ID: m.ID, Text: m.Content, Type: model.TypeRecord, Timestamp: m.Timestamp})
	if err != nil {
		logger.Warn("record message not stored", "memo", m.ID, "err", err)
	} else if _, err := s.rooms.RecordMessages(cmd.Context(), roomID, 1, &model.LastMessage{
		Text:      preview(rec.Text, 80),
		Type:      rec.Type,
		Timestamp: rec.Timestamp,
	}); err != nil {
		logger.Debug("room preview not updated", "room", roomID, "err", err)
	}
	syncMemoCount(cmd, s, roomID)
	printMemos([]model.Memo{m})
}

func runMemoEdit(cmd *cobra.Command, args []string) {
	var patch memo.Patch
	if cmd.Flags().Changed("title") {
		v, _ := cmd.Flags().GetString("title")
		patch.Title = &v
	}
	if cmd.Flags().Changed("content") {
		v, _ := cmd.Flags().GetString("content")
		patch.Content = &v
	}
	if cmd.Flags().Changed("favorite") {
		v, _ := cmd.Flags().GetBool("favorite")
		patch.IsFavorite = &v
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, err := s.memos.Update(cmd.Context(), roomOrCurrent(cmd, s), args[0], patch)
	if err != nil {
		exitErr("edit memo", err)
	}
	printMemos([]model.Memo{m})
}

func runMemoTrash(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	roomID := roomOrCurrent(cmd, s)
	m, err := s.memos.Trash(cmd.Context(), roomID, args[0])
	if err != nil {
		exitErr("trash memo", err)
	}
	syncMemoCount(cmd, s, roomID)
	printMemos([]model.Memo{m})
}

func runMemoRestore(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	roomID := roomOrCurrent(cmd, s)
	m, err := s.memos.RestoreTrashed(cmd.Context(), roomID, args[0])
	if err != nil {
		exitErr("restore memo", err)
	}
	syncMemoCount(cmd, s, roomID)
	printMemos([]model.Memo{m})
}

func runMemoPurge(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.memos.PurgeTrashed(cmd.Context(), roomOrCurrent(cmd, s), args[0]); err != nil {
		exitErr("purge memo", err)
	}
	fmt.Printf(`{"ok":true,"id":%q}`+"\n", args[0])
}
