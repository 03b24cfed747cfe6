package memo

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rcliao/memoya/internal/model"
)

const maxTasksPerMemo = 10

// Each pattern captures the task marker in group 2; a match whose marker is
// blank is ignored.
var taskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(.{0,20})(해야\s*(?:할|하는)\s*(?:일|것|거))(.{0,30})`),
	regexp.MustCompile(`(?i)(.{0,20})([\p{Hangul}\w]+하기)(.{0,30})`),
	regexp.MustCompile(`(?im)(todo\s*:?\s*)(.+?)$`),
	regexp.MustCompile(`(?i)(.{0,20})(해봐야겠다|해야겠다|하자)(.{0,20})`),
	regexp.MustCompile(`(?m)([※-]\s*)(.+?)$`),
	regexp.MustCompile(`(?m)(\d+\.\s*)(.+?)$`),
}

var (
	leadingNumber = regexp.MustCompile(`^\d+\.\s*`)
	leadingBullet = regexp.MustCompile(`^[※-]\s*`)
	leadingTodo   = regexp.MustCompile(`(?i)^todo\s*:?\s*`)
	topicWord     = regexp.MustCompile(`\p{Hangul}{3,}|[a-z]{3,}`)
)

// FindTasks pulls TODO-style action items out of free text. Items that
// contain or are contained in an earlier item are dropped.
func FindTasks(text string) []string {
	tasks := []string{}
	for _, re := range taskPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 3 || strings.TrimSpace(m[2]) == "" {
				continue
			}
			task := strings.TrimSpace(m[0])
			n := utf8.RuneCountInString(task)
			if n <= 3 || n >= 100 {
				continue
			}
			task = leadingNumber.ReplaceAllString(task, "")
			task = leadingBullet.ReplaceAllString(task, "")
			task = strings.TrimSpace(leadingTodo.ReplaceAllString(task, ""))
			if task == "" || overlaps(tasks, task) {
				continue
			}
			tasks = append(tasks, task)
		}
	}
	if len(tasks) > maxTasksPerMemo {
		tasks = tasks[:maxTasksPerMemo]
	}
	return tasks
}

func overlaps(existing []string, task string) bool {
	for _, e := range existing {
		if strings.Contains(e, task) || strings.Contains(task, e) {
			return true
		}
	}
	return false
}

// KeyTopics returns the five most frequent words across the memos. Ties keep
// the order in which words first appear.
func KeyTopics(memos []model.Memo) []string {
	parts := make([]string, len(memos))
	for i, m := range memos {
		parts[i] = m.Content
	}
	words := topicWord.FindAllString(strings.ToLower(strings.Join(parts, " ")), -1)

	counts := map[string]int{}
	var order []string
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 5 {
		order = order[:5]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

// summaryText describes the memos in one of three lengths.
func summaryText(memos []model.Memo, length string, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "There are %d memos in total. ", len(memos))

	if len(memos) > 1 {
		oldest, newest := memos[0].Timestamp, memos[0].Timestamp
		for _, m := range memos[1:] {
			if m.Timestamp.Before(oldest) {
				oldest = m.Timestamp
			}
			if m.Timestamp.After(newest) {
				newest = m.Timestamp
			}
		}
		days := int(math.Ceil(newest.Sub(oldest).Hours() / 24))
		fmt.Fprintf(&b, "Written over %d days from %s to %s. ",
			days, oldest.In(loc).Format(dateLayout), newest.In(loc).Format(dateLayout))
	}

	highlights := 0
	switch length {
	case "detailed":
		highlights = 3
	case "comprehensive":
		highlights = 5
	}
	if highlights > 0 {
		b.WriteString("\n\nHighlights:\n")
		for i, m := range memos {
			if i == highlights {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, preview(m.Content, 50))
		}
	}
	if length == "comprehensive" {
		if topics := KeyTopics(memos); len(topics) > 0 {
			fmt.Fprintf(&b, "\nKey topics: %s\n", strings.Join(topics, ", "))
		}
	}
	return b.String()
}

// preview truncates s to n runes, marking the cut with "...".
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
