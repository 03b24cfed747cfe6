// Package cli implements the memoya CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/config"
	"github.com/rcliao/memoya/internal/kv"
	"github.com/rcliao/memoya/internal/memo"
	"github.com/rcliao/memoya/internal/room"
	"github.com/rcliao/memoya/internal/store"
)

var (
	dbPath     string
	formatFlag string
	verbose    bool

	cfg    *config.Config
	logger *log.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memoya",
	Short: "Month-partitioned chat and memo store",
	Long: "memoya keeps chat messages and memos in one key per calendar month, " +
		"with memo tools an assistant can call. SQLite-backed, single binary.",
	PersistentPreRun: setup,
	SilenceUsage:     true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MEMOYA_DB or ~/.memoya/memoya.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func setup(cmd *cobra.Command, args []string) {
	if err := config.LoadDotenv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	c, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	cfg = c

	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "memoya",
		ReportTimestamp: verbose,
		TimeFormat:      time.Kitchen,
	})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DBPath
}

// stores bundles everything backed by one database file.
type stores struct {
	kv       kv.Store
	messages *store.Partitioned
	memos    *memo.Repo
	rooms    *room.Manager
}

func (s *stores) Close() error {
	return s.kv.Close()
}

func (s *stores) executor() *memo.Executor {
	return memo.NewExecutor(s.memos, time.Local, logger)
}

// openStore opens the database. The path ":memory:" selects a throwaway
// in-process store.
func openStore() (*stores, error) {
	var db kv.Store = kv.NewMemory()
	if path := getDBPath(); path != ":memory:" {
		sq, err := kv.NewSQLite(path)
		if err != nil {
			return nil, err
		}
		db = sq
	}
	logger.Debug("opened database", "path", getDBPath())
	return &stores{
		kv: db,
		messages: store.New(db, store.Options{
			Horizon: cfg.Horizon,
			Logger:  logger,
		}),
		memos: memo.NewRepo(db, logger, time.Now),
		rooms: room.NewManager(db, logger, time.Now),
	}, nil
}

// roomOrCurrent returns the --room flag value, or the current room.
func roomOrCurrent(cmd *cobra.Command, s *stores) string {
	if id, _ := cmd.Flags().GetString("room"); id != "" {
		return id
	}
	r, err := s.rooms.Current(cmd.Context())
	if err != nil {
		exitErr("current room", err)
	}
	return r.ID
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
