package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/export"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import messages",
		Long:  "Import messages from a file or stdin, in the json, jsonl or yaml form produced by export. Ids already stored are skipped.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	cmd.Flags().StringP("as", "a", "", "Input format (default: from the file extension, else json)")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	as, _ := cmd.Flags().GetString("as")

	var r io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("open input", err)
		}
		defer f.Close()
		r = f
		if as == "" {
			as = strings.TrimPrefix(filepath.Ext(args[0]), ".")
		}
	}
	if as == "" {
		as = "json"
	}

	msgs, err := export.Read(r, as)
	if err != nil {
		exitErr("parse input", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.messages.Import(cmd.Context(), msgs)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d,"skipped":%d}`+"\n", imported, len(msgs)-imported)
}
