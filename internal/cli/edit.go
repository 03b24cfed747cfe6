package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/model"
	"github.com/rcliao/memoya/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update fields of a message",
		Long:  "Update a message found within the horizon. Only the flags given are changed; the timestamp never is.",
		Args:  cobra.ExactArgs(1),
		Run:   runEdit,
	}

	cmd.Flags().String("text", "", "New text")
	cmd.Flags().StringP("type", "t", "", "New type")
	cmd.Flags().Bool("favorite", false, "Set or clear the favorite flag")
	cmd.Flags().Bool("memory", false, "Set or clear the memory flag")

	RootCmd.AddCommand(cmd)
}

func runEdit(cmd *cobra.Command, args []string) {
	var patch store.Patch
	if cmd.Flags().Changed("text") {
		text, _ := cmd.Flags().GetString("text")
		patch.Text = &text
	}
	if cmd.Flags().Changed("type") {
		typ, _ := cmd.Flags().GetString("type")
		t := model.MessageType(typ)
		if !model.ValidTypes[t] {
			exitErr("edit", fmt.Errorf("invalid type %q", typ))
		}
		patch.Type = &t
	}
	if cmd.Flags().Changed("favorite") {
		fav, _ := cmd.Flags().GetBool("favorite")
		patch.IsFavorite = &fav
	}
	if cmd.Flags().Changed("memory") {
		mem, _ := cmd.Flags().GetBool("memory")
		patch.IsMemory = &mem
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := s.messages.UpdateByID(cmd.Context(), args[0], patch)
	if err != nil {
		exitErr("edit", err)
	}
	printResult("edit", args[0], res)
}
