package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/memo"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tool <name> [json-args]",
		Short: "Run a memo tool",
		Long: "Run one of the memo tools the assistant can call, with its input as a JSON object.\n" +
			"Mutating tools only propose an action; pass --approve to apply it.\n" +
			"Run without arguments to list the tools.",
		Args: cobra.MaximumNArgs(2),
		Run:  runTool,
	}

	cmd.Flags().StringP("room", "r", "", "Room id (default: the current room)")
	cmd.Flags().Bool("approve", false, "Apply a proposed save or delete")

	RootCmd.AddCommand(cmd)
}

func runTool(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		defs := memo.Definitions()
		if formatFlag != "text" {
			printJSON(defs)
			return
		}
		for _, d := range defs {
			fmt.Printf("%s  %s\n", styleID.Render(d.Name), d.Description)
		}
		return
	}

	input := json.RawMessage("{}")
	if len(args) == 2 {
		raw := strings.TrimSpace(args[1])
		if !json.Valid([]byte(raw)) {
			exitErr("tool", fmt.Errorf("arguments are not valid JSON"))
		}
		input = json.RawMessage(raw)
	}
	approve, _ := cmd.Flags().GetBool("approve")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	exec := s.executor()
	res := exec.Execute(cmd.Context(), roomOrCurrent(cmd, s), args[0], input)
	if approve && res.PendingAction != nil {
		res = exec.Approve(cmd.Context(), *res.PendingAction)
		syncMemoCount(cmd, s, roomOrCurrent(cmd, s))
	}
	printJSON(res)
}
