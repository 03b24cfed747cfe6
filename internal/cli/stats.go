package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-month message statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.messages.Stats(cmd.Context())
	if err != nil {
		if stats == nil {
			exitErr("stats", err)
		}
		logger.Warn("some months could not be read", "err", err)
	}

	if formatFlag == "text" {
		fmt.Println(styleHeader.Render(fmt.Sprintf("%d messages, %d active, %d deleted", stats.TotalMessages, stats.ActiveMessages, stats.Deleted)))
		for _, p := range stats.Partitions {
			fmt.Printf("%s  %4d  %s\n", p.Month, p.Count, styleDim.Render(fmt.Sprintf("%d active, %d deleted, %d bytes", p.Active, p.Deleted, p.Bytes)))
		}
		if stats.LegacyPending {
			fmt.Println(styleWarn.Render("legacy messages pending: run memoya migrate"))
		}
		return
	}
	printJSON(stats)
}
