package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/export"
	"github.com/rcliao/memoya/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export messages",
		Long:  "Export every stored message, oldest first, as json, jsonl, yaml or md.",
		Run:   runExport,
	}

	cmd.Flags().StringP("as", "a", "json", "Export format: json, jsonl, yaml or md")
	cmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntP("months", "m", 0, "Only the most recent N months (default: all)")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	as, _ := cmd.Flags().GetString("as")
	out, _ := cmd.Flags().GetString("out")
	months, _ := cmd.Flags().GetInt("months")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var msgs []model.Message
	if months > 0 {
		msgs, err = s.messages.Paginate(cmd.Context(), months)
	} else {
		msgs, err = s.messages.ExportAll(cmd.Context())
	}
	if err != nil {
		logger.Warn("some months could not be read", "err", err)
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			exitErr("create output", err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, as, msgs, nil); err != nil {
		exitErr("export", err)
	}
	logger.Debug("exported", "messages", len(msgs), "format", as)
}
