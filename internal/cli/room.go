package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/model"
)

func init() {
	roomCmd := &cobra.Command{
		Use:   "room",
		Short: "Chat room management",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		Run:   runRoomList,
	}
	createCmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a room and make it current",
		Run:   runRoomCreate,
	}
	renameCmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a room",
		Args:  cobra.MinimumNArgs(2),
		Run:   runRoomRename,
	}
	useCmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Switch the current room",
		Args:  cobra.ExactArgs(1),
		Run:   runRoomUse,
	}
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a room with its memos",
		Args:  cobra.ExactArgs(1),
		Run:   runRoomDelete,
	}

	roomCmd.AddCommand(listCmd, createCmd, renameCmd, useCmd, deleteCmd)
	RootCmd.AddCommand(roomCmd)
}

func printRooms(rooms []model.ChatRoom, current string) {
	if formatFlag != "text" {
		printJSON(rooms)
		return
	}
	for _, r := range rooms {
		mark := "  "
		if r.ID == current {
			mark = "* "
		}
		fmt.Printf("%s%s %s %s\n", mark, styleID.Render(r.ID), r.Title,
			styleDim.Render(fmt.Sprintf("(%d memos)", r.MemoCount)))
	}
}

func runRoomList(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rooms, err := s.rooms.Load(cmd.Context())
	if err != nil {
		exitErr("list rooms", err)
	}
	cur, _ := s.rooms.Current(cmd.Context())
	printRooms(rooms, cur.ID)
}

func runRoomCreate(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	r, err := s.rooms.Create(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		exitErr("create room", err)
	}
	printRooms([]model.ChatRoom{r}, r.ID)
}

func runRoomRename(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	r, err := s.rooms.Rename(cmd.Context(), args[0], strings.Join(args[1:], " "))
	if err != nil {
		exitErr("rename room", err)
	}
	printRooms([]model.ChatRoom{r}, "")
}

func runRoomUse(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.rooms.SetCurrent(cmd.Context(), args[0]); err != nil {
		exitErr("use room", err)
	}
	fmt.Printf(`{"ok":true,"current":%q}`+"\n", args[0])
}

func runRoomDelete(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.rooms.Delete(cmd.Context(), args[0]); err != nil {
		exitErr("delete room", err)
	}
	fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
}
