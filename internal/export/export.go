// Package export renders messages for export and parses them back for import.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/memoya/internal/model"
)

// Formats lists the supported format names.
var Formats = []string{"json", "jsonl", "yaml", "md"}

// Write renders msgs in the named format. Dates in markdown use loc.
func Write(w io.Writer, format string, msgs []model.Message, loc *time.Location) error {
	if msgs == nil {
		msgs = []model.Message{}
	}
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, m := range msgs {
			if err := enc.Encode(m); err != nil {
				return err
			}
		}
		return nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(msgs); err != nil {
			return err
		}
		return enc.Close()
	case "md", "markdown":
		return writeMarkdown(w, msgs, loc)
	default:
		return fmt.Errorf("unknown export format %q (valid: %s)", format, strings.Join(Formats, ", "))
	}
}

func writeMarkdown(w io.Writer, msgs []model.Message, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# memoya export")

	day := ""
	for _, m := range msgs {
		ts := m.Timestamp.In(loc)
		if d := ts.Format("2006-01-02"); d != day {
			day = d
			fmt.Fprintf(bw, "\n## %s\n\n", day)
		}
		text := strings.ReplaceAll(strings.TrimSpace(m.Text), "\n", "\n  ")
		switch m.State() {
		case model.StateDeleted:
			text = "~~" + text + "~~ (deleted)"
		case model.StatePermanentlyDeleted:
			text = "~~" + text + "~~ (permanently deleted)"
		}
		fav := ""
		if m.IsFavorite {
			fav = " ★"
		}
		fmt.Fprintf(bw, "- **%s** [%s]%s %s\n", ts.Format("15:04"), m.Type, fav, text)
	}
	return bw.Flush()
}

// Read parses messages written by Write. Markdown cannot be read back.
func Read(r io.Reader, format string) ([]model.Message, error) {
	var msgs []model.Message
	switch format {
	case "json", "":
		if err := json.NewDecoder(r).Decode(&msgs); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case "jsonl":
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		line := 0
		for sc.Scan() {
			line++
			if strings.TrimSpace(sc.Text()) == "" {
				continue
			}
			var m model.Message
			if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
				return nil, fmt.Errorf("parse jsonl line %d: %w", line, err)
			}
			msgs = append(msgs, m)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&msgs); err != nil && err != io.EOF {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("cannot import format %q (valid: json, jsonl, yaml)", format)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}
