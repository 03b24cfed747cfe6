package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rcliao/memoya/internal/model"
	"github.com/rcliao/memoya/internal/store"
)

var (
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6370"))
	styleID      = lipgloss.NewStyle().Foreground(lipgloss.Color("#61AFEF"))
	styleUser    = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379")).Bold(true)
	styleAI      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C678DD")).Bold(true)
	styleMemo    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")).Bold(true)
	styleDeleted = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6370")).Strikethrough(true)
	styleHeader  = lipgloss.NewStyle().Bold(true).Underline(true)
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
)

func typeStyle(t model.MessageType) lipgloss.Style {
	switch t {
	case model.TypeAI:
		return styleAI
	case model.TypeMemo, model.TypeRecord:
		return styleMemo
	default:
		return styleUser
	}
}

func renderMessage(m model.Message) string {
	text := m.Text
	if !m.Visible() {
		text = styleDeleted.Render(text)
	}
	star := ""
	if m.IsFavorite {
		star = " ★"
	}
	if m.MemoStatus != "" && m.MemoStatus != model.StateActive {
		text += " " + styleWarn.Render("["+string(m.MemoStatus)+"]")
	}
	return fmt.Sprintf("%s %s %s%s %s",
		styleDim.Render(m.Timestamp.Local().Format("2006-01-02 15:04")),
		styleID.Render(m.ID),
		typeStyle(m.Type).Render(string(m.Type)),
		star,
		text,
	)
}

// printMessages writes msgs in the selected output format.
func printMessages(msgs []model.Message) {
	if formatFlag != "text" {
		printJSON(msgs)
		return
	}
	month := ""
	for _, m := range msgs {
		if k := m.Timestamp.Local().Format("2006-01"); k != month {
			month = k
			fmt.Println(styleHeader.Render(month))
		}
		fmt.Println(renderMessage(m))
	}
}

// printResult reports an id-targeted mutation.
func printResult(op, id string, res store.Result) {
	if formatFlag != "text" {
		fmt.Printf(`{"ok":%t,"op":%q,"id":%q,"outcome":%q,"month":%q}`+"\n", res.Found(), op, id, res.Outcome, res.Month)
		return
	}
	if !res.Found() {
		fmt.Println(styleWarn.Render(fmt.Sprintf("%s: %s not found within the horizon", op, id)))
		return
	}
	fmt.Printf("%s %s %s\n", op, styleID.Render(id), styleDim.Render("("+res.Month+")"))
}

func printLines(lines []string) {
	if formatFlag != "text" {
		printJSON(lines)
		return
	}
	fmt.Println(strings.Join(lines, "\n"))
}
