package memo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/rcliao/memoya/internal/model"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
	monthLayout    = "2006-01"
)

// Definition describes a tool to the model.
type Definition struct {
	Name        string
	Description string
	InputSchema anthropic.ToolInputSchemaParam
	// Mutating tools never change data directly; they return a PendingAction.
	Mutating bool
}

// Result is what a tool call reports back.
type Result struct {
	Success          bool           `json:"success"`
	Data             any            `json:"data,omitempty"`
	Message          string         `json:"message,omitempty"`
	RequiresApproval bool           `json:"requires_approval,omitempty"`
	PendingAction    *PendingAction `json:"pending_action,omitempty"`
}

// PendingAction is a mutation waiting for a human to approve it.
type PendingAction struct {
	ID          string          `json:"id"`
	Tool        string          `json:"tool"`
	RoomID      string          `json:"room_id,omitempty"`
	Args        json.RawMessage `json:"args"`
	Description string          `json:"description"`
}

// SearchInput is the input of search_memos.
type SearchInput struct {
	Keyword  string `json:"keyword,omitempty" jsonschema_description:"Case-insensitive text the memo must contain."`
	DateFrom string `json:"date_from,omitempty" jsonschema_description:"Earliest memo date, YYYY-MM-DD."`
	DateTo   string `json:"date_to,omitempty" jsonschema_description:"Latest memo date, YYYY-MM-DD, inclusive."`
	Month    string `json:"month,omitempty" jsonschema_description:"Only memos from this month, YYYY-MM. Overrides the date range."`
	Limit    int    `json:"limit,omitempty" jsonschema_description:"Maximum memos to return (default 10)."`
}

// StatsInput is the input of get_memo_stats.
type StatsInput struct {
	Type string `json:"type" jsonschema:"enum=total_count,enum=monthly_distribution,enum=recent_activity" jsonschema_description:"Which statistic to compute."`
}

// SummaryInput is the input of generate_summary.
type SummaryInput struct {
	DateFrom      string `json:"date_from,omitempty" jsonschema_description:"Earliest memo date, YYYY-MM-DD."`
	DateTo        string `json:"date_to,omitempty" jsonschema_description:"Latest memo date, YYYY-MM-DD, inclusive."`
	Month         string `json:"month,omitempty" jsonschema_description:"Only memos from this month, YYYY-MM."`
	Keyword       string `json:"keyword,omitempty" jsonschema_description:"Only memos containing this text."`
	SummaryLength string `json:"summary_length,omitempty" jsonschema:"enum=brief,enum=detailed,enum=comprehensive" jsonschema_description:"How long the summary should be (default brief)."`
}

// TasksInput is the input of extract_tasks.
type TasksInput struct {
	DateFrom string `json:"date_from,omitempty" jsonschema_description:"Earliest memo date, YYYY-MM-DD."`
	DateTo   string `json:"date_to,omitempty" jsonschema_description:"Latest memo date, YYYY-MM-DD, inclusive."`
	Keyword  string `json:"keyword,omitempty" jsonschema_description:"Only memos containing this text."`
}

// SaveInput is the input of save_memo.
type SaveInput struct {
	Content string `json:"content" jsonschema_description:"Memo text to save."`
	Title   string `json:"title,omitempty" jsonschema_description:"Optional short title."`
}

// DeleteInput is the input of delete_memo.
type DeleteInput struct {
	MemoID string `json:"memo_id" jsonschema_description:"Id of the memo to move to the trash."`
}

var definitions = []Definition{
	{
		Name:        "search_memos",
		Description: "Search the user's memos by keyword, date range or month.",
		InputSchema: GenerateSchema[SearchInput](),
	},
	{
		Name:        "get_memo_stats",
		Description: "Get statistics about the user's memos: total count, monthly distribution or recent activity.",
		InputSchema: GenerateSchema[StatsInput](),
	},
	{
		Name:        "generate_summary",
		Description: "Summarize the user's memos, optionally filtered by period or keyword, and list key topics.",
		InputSchema: GenerateSchema[SummaryInput](),
	},
	{
		Name:        "extract_tasks",
		Description: "Extract to-do items and action items from the user's memos.",
		InputSchema: GenerateSchema[TasksInput](),
	},
	{
		Name:        "save_memo",
		Description: "Save a new memo for the user. The user must approve before it is stored.",
		InputSchema: GenerateSchema[SaveInput](),
		Mutating:    true,
	},
	{
		Name:        "delete_memo",
		Description: "Move one of the user's memos to the trash. The user must approve first.",
		InputSchema: GenerateSchema[DeleteInput](),
		Mutating:    true,
	},
}

// Definitions returns every tool the executor answers to.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Executor runs memo tools against a Repo.
type Executor struct {
	repo   *Repo
	loc    *time.Location
	now    func() time.Time
	logger *log.Logger

	mu      sync.Mutex
	entropy *rand.Rand
}

// NewExecutor returns an executor. Dates in tool input and output are
// interpreted in loc; nil means time.Local.
func NewExecutor(repo *Repo, loc *time.Location, logger *log.Logger) *Executor {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		repo:    repo,
		loc:     loc,
		now:     repo.now,
		logger:  logger,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Repo returns the repository the executor writes to.
func (e *Executor) Repo() *Repo { return e.repo }

// Execute runs the named tool. Failures are reported in the Result, never
// as a Go error, so the caller can hand any result back to the model.
func (e *Executor) Execute(ctx context.Context, roomID, name string, args json.RawMessage) Result {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	e.logger.Debug("execute tool", "tool", name, "room", roomID)

	var (
		res Result
		err error
	)
	switch name {
	case "search_memos":
		res, err = e.searchMemos(ctx, roomID, args)
	case "get_memo_stats":
		res, err = e.memoStats(ctx, roomID, args)
	case "generate_summary":
		res, err = e.generateSummary(ctx, roomID, args)
	case "extract_tasks":
		res, err = e.extractTasks(ctx, roomID, args)
	case "save_memo":
		res, err = e.proposeSave(roomID, args)
	case "delete_memo":
		res, err = e.proposeDelete(ctx, roomID, args)
	default:
		return Result{Success: false, Message: fmt.Sprintf("unknown tool: %s", name)}
	}
	if err != nil {
		e.logger.Error("tool failed", "tool", name, "err", err)
		return Result{Success: false, Message: fmt.Sprintf("%s failed: %v", name, err)}
	}
	return res
}

// Approve applies a pending mutation.
func (e *Executor) Approve(ctx context.Context, action PendingAction) Result {
	switch action.Tool {
	case "save_memo":
		var in SaveInput
		if err := json.Unmarshal(action.Args, &in); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("invalid arguments: %v", err)}
		}
		m, err := e.repo.Add(ctx, action.RoomID, model.Memo{Content: in.Content, Title: in.Title})
		if err != nil {
			return Result{Success: false, Message: fmt.Sprintf("save memo: %v", err)}
		}
		return Result{Success: true, Data: m, Message: "Memo saved."}
	case "delete_memo":
		var in DeleteInput
		if err := json.Unmarshal(action.Args, &in); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("invalid arguments: %v", err)}
		}
		m, err := e.repo.Trash(ctx, action.RoomID, in.MemoID)
		if errors.Is(err, ErrNotFound) {
			return Result{Success: false, Message: fmt.Sprintf("memo %s not found", in.MemoID)}
		}
		if err != nil {
			return Result{Success: false, Message: fmt.Sprintf("delete memo: %v", err)}
		}
		return Result{Success: true, Data: m, Message: "Memo moved to trash."}
	default:
		return Result{Success: false, Message: fmt.Sprintf("unknown action: %s", action.Tool)}
	}
}

func (e *Executor) newActionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(e.now()), e.entropy).String()
}

func (e *Executor) proposeSave(roomID string, args json.RawMessage) (Result, error) {
	var in SaveInput
	if err := json.Unmarshal(args, &in); err != nil {
		return Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Content) == "" {
		return Result{Success: false, Message: "content is required"}, nil
	}
	action := &PendingAction{
		ID:          e.newActionID(),
		Tool:        "save_memo",
		RoomID:      roomID,
		Args:        args,
		Description: "Save memo: " + preview(in.Content, 50),
	}
	return Result{
		Success:          true,
		RequiresApproval: true,
		PendingAction:    action,
		Message:          "Saving this memo needs the user's approval.",
	}, nil
}

func (e *Executor) proposeDelete(ctx context.Context, roomID string, args json.RawMessage) (Result, error) {
	var in DeleteInput
	if err := json.Unmarshal(args, &in); err != nil {
		return Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	memos, err := e.repo.List(ctx, roomID)
	if err != nil {
		return Result{}, err
	}
	i := indexOf(memos, in.MemoID)
	if i < 0 {
		return Result{Success: false, Message: fmt.Sprintf("memo %s not found", in.MemoID)}, nil
	}
	action := &PendingAction{
		ID:          e.newActionID(),
		Tool:        "delete_memo",
		RoomID:      roomID,
		Args:        args,
		Description: "Delete memo: " + preview(memos[i].Content, 50),
	}
	return Result{
		Success:          true,
		RequiresApproval: true,
		PendingAction:    action,
		Message:          "Deleting this memo needs the user's approval.",
	}, nil
}

// filter narrows memos by keyword and date. Month wins over the date range.
type filter struct {
	Keyword  string
	DateFrom string
	DateTo   string
	Month    string
}

func (e *Executor) apply(memos []model.Memo, f filter) ([]model.Memo, error) {
	var from, to time.Time
	if f.DateFrom != "" {
		t, err := time.ParseInLocation(dateLayout, f.DateFrom, e.loc)
		if err != nil {
			return nil, fmt.Errorf("date_from %q: %w", f.DateFrom, err)
		}
		from = t
	}
	if f.DateTo != "" {
		t, err := time.ParseInLocation(dateLayout, f.DateTo, e.loc)
		if err != nil {
			return nil, fmt.Errorf("date_to %q: %w", f.DateTo, err)
		}
		to = t.Add(24*time.Hour - time.Second)
	}
	if f.Month != "" {
		if _, err := time.ParseInLocation(monthLayout, f.Month, e.loc); err != nil {
			return nil, fmt.Errorf("month %q: %w", f.Month, err)
		}
	}
	keyword := strings.ToLower(f.Keyword)

	out := []model.Memo{}
	for _, m := range memos {
		if keyword != "" && !strings.Contains(strings.ToLower(m.Content), keyword) {
			continue
		}
		ts := m.Timestamp.In(e.loc)
		if f.Month != "" {
			if ts.Format(monthLayout) != f.Month {
				continue
			}
		} else {
			if !from.IsZero() && ts.Before(from) {
				continue
			}
			if !to.IsZero() && ts.After(to) {
				continue
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func timeRange(f filter) string {
	switch {
	case f.Month != "":
		return f.Month
	case f.DateFrom != "" && f.DateTo != "":
		return f.DateFrom + " ~ " + f.DateTo
	case f.DateFrom != "":
		return "since " + f.DateFrom
	case f.DateTo != "":
		return "until " + f.DateTo
	default:
		return "all time"
	}
}

type memoView struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
	FormattedDate string    `json:"formatted_date"`
}

func (e *Executor) view(m model.Memo, n int) memoView {
	content := m.Content
	if n > 0 {
		content = preview(content, n)
	}
	return memoView{
		ID:            m.ID,
		Content:       content,
		Timestamp:     m.Timestamp,
		FormattedDate: m.Timestamp.In(e.loc).Format(dateTimeLayout),
	}
}

func (e *Executor) searchMemos(ctx context.Context, roomID string, args json.RawMessage) (Result, error) {
	var in SearchInput
	if err := json.Unmarshal(args, &in); err != nil {
		return Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	memos, err := e.repo.List(ctx, roomID)
	if err != nil {
		return Result{}, err
	}
	found, err := e.apply(memos, filter{Keyword: in.Keyword, DateFrom: in.DateFrom, DateTo: in.DateTo, Month: in.Month})
	if err != nil {
		return Result{Success: false, Message: err.Error()}, nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(found) > limit {
		found = found[:limit]
	}
	views := make([]memoView, len(found))
	for i, m := range found {
		views[i] = e.view(m, 0)
	}
	return Result{Success: true, Data: views, Message: fmt.Sprintf("Found %d memos.", len(views))}, nil
}

func (e *Executor) memoStats(ctx context.Context, roomID string, args json.RawMessage) (Result, error) {
	var in StatsInput
	if err := json.Unmarshal(args, &in); err != nil {
		return Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	memos, err := e.repo.List(ctx, roomID)
	if err != nil {
		return Result{}, err
	}

	switch in.Type {
	case "total_count":
		return Result{
			Success: true,
			Data:    map[string]any{"total_count": len(memos)},
			Message: fmt.Sprintf("There are %d memos.", len(memos)),
		}, nil
	case "monthly_distribution":
		dist := map[string]int{}
		for _, m := range memos {
			dist[m.Timestamp.In(e.loc).Format(monthLayout)]++
		}
		return Result{
			Success: true,
			Data:    map[string]any{"monthly_distribution": dist},
			Message: "Monthly memo distribution.",
		}, nil
	case "recent_activity":
		recent := append([]model.Memo(nil), memos...)
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].Timestamp.After(recent[j].Timestamp)
		})
		if len(recent) > 5 {
			recent = recent[:5]
		}
		views := make([]memoView, len(recent))
		for i, m := range recent {
			views[i] = e.view(m, 50)
		}
		return Result{
			Success: true,
			Data:    map[string]any{"recent_memos": views},
			Message: fmt.Sprintf("The %d most recent memos.", len(views)),
		}, nil
	default:
		return Result{Success: false, Message: fmt.Sprintf("unsupported stats type %q", in.Type)}, nil
	}
}

func (e *Executor) generateSummary(ctx context.Context, roomID string, args json.RawMessage) (Result, error) {
	var in SummaryInput
	if err := json.Unmarshal(args, &in); err != nil {
		return Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	memos, err := e.repo.List(ctx, roomID)
	if err != nil {
		return Result{}, err
	}
	f := filter{Keyword: in.Keyword, DateFrom: in.DateFrom, DateTo: in.DateTo, Month: in.Month}
	found, err := e.apply(memos, f)
	if err != nil {
		return Result{Success: false, Message: err.Error()}, nil
	}

	if len(found) == 0 {
		return Result{
			Success: true,
			Data: map[string]any{
				"total_memos": 0,
				"summary":     "No memos match the given conditions.",
				"key_topics":  []string{},
				"time_range":  timeRange(f),
			},
			Message: "No memos matched, so no summary was generated.",
		}, nil
	}

	length := in.SummaryLength
	if length == "" {
		length = "brief"
	}
	top := found
	if len(top) > 5 {
		top = top[:5]
	}
	views := make([]memoView, len(top))
	for i, m := range top {
		views[i] = e.view(m, 100)
	}
	return Result{
		Success: true,
		Data: map[string]any{
			"total_memos": len(found),
			"summary":     summaryText(found, length, e.loc),
			"key_topics":  KeyTopics(found),
			"time_range":  timeRange(f),
			"memos":       views,
		},
		Message: fmt.Sprintf("Summarized %d memos.", len(found)),
	}, nil
}

// Task is one extracted action item.
type Task struct {
	Task   string `json:"task"`
	Source string `json:"source"`
	Date   string `json:"date"`
	MemoID string `json:"memo_id"`
}

func (e *Executor) extractTasks(ctx context.Context, roomID string, args json.RawMessage) (Result, error) {
	var in TasksInput
	if err := json.Unmarshal(args, &in); err != nil {
		return Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	memos, err := e.repo.List(ctx, roomID)
	if err != nil {
		return Result{}, err
	}
	f := filter{Keyword: in.Keyword, DateFrom: in.DateFrom, DateTo: in.DateTo}
	found, err := e.apply(memos, f)
	if err != nil {
		return Result{Success: false, Message: err.Error()}, nil
	}

	tasks := []Task{}
	for _, m := range found {
		for _, t := range FindTasks(m.Content) {
			tasks = append(tasks, Task{
				Task:   t,
				Source: preview(m.Content, 50),
				Date:   m.Timestamp.In(e.loc).Format(dateLayout),
				MemoID: m.ID,
			})
		}
	}
	return Result{
		Success: true,
		Data: map[string]any{
			"tasks":       tasks,
			"total_tasks": len(tasks),
			"total_memos": len(found),
			"time_range":  timeRange(f),
		},
		Message: fmt.Sprintf("Found %d tasks in %d memos.", len(tasks), len(found)),
	}, nil
}
