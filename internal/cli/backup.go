package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/backup"
)

func init() {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up and restore the whole database",
	}

	createCmd := &cobra.Command{
		Use:   "create [path]",
		Short: "Write every key to a backup file",
		Long:  "Write every stored key to a versioned JSON backup. Without a path the file goes to $MEMOYA_BACKUP_DIR.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runBackupCreate,
	}
	infoCmd := &cobra.Command{
		Use:   "info <path>",
		Short: "Describe a backup file",
		Args:  cobra.ExactArgs(1),
		Run:   runBackupInfo,
	}
	restoreCmd := &cobra.Command{
		Use:   "restore <path>",
		Short: "Replace the database contents with a backup",
		Args:  cobra.ExactArgs(1),
		Run:   runBackupRestore,
	}
	restoreCmd.Flags().Bool("yes", false, "Confirm")
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List backups in the backup directory, newest first",
		Run:   runBackupList,
	}
	copyCmd := &cobra.Command{
		Use:   "copy <path> <dir>",
		Short: "Copy a backup into dir under a timestamped name",
		Args:  cobra.ExactArgs(2),
		Run:   runBackupCopy,
	}

	backupCmd.AddCommand(createCmd, infoCmd, restoreCmd, listCmd, copyCmd)
	RootCmd.AddCommand(backupCmd)
}

func printSummary(sum *backup.Summary) {
	if formatFlag != "text" {
		printJSON(sum)
		return
	}
	fmt.Printf("%s\n  version %s, taken %s\n  %d keys, %d rooms, %d memos, %d messages in %d months\n",
		styleID.Render(sum.Path), sum.Version, sum.Timestamp.Local().Format(time.DateTime),
		sum.Keys, sum.Rooms, sum.Memos, sum.Messages, sum.Partitions)
}

func runBackupCreate(cmd *cobra.Command, args []string) {
	now := time.Now()
	path := filepath.Join(cfg.BackupDir, backup.FileName(now))
	if len(args) == 1 {
		path = args[0]
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sum, err := backup.Create(cmd.Context(), s.kv, path, now)
	if err != nil {
		exitErr("backup", err)
	}
	printSummary(sum)
}

func runBackupInfo(cmd *cobra.Command, args []string) {
	sum, err := backup.Info(args[0])
	if err != nil {
		exitErr("backup info", err)
	}
	printSummary(sum)
}

func runBackupRestore(cmd *cobra.Command, args []string) {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		exitErr("restore", fmt.Errorf("restore replaces every stored key; rerun with --yes"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sum, err := backup.Restore(cmd.Context(), s.kv, args[0])
	if err != nil {
		exitErr("restore", err)
	}
	logger.Info("restored backup", "path", args[0], "keys", sum.Keys)
	printSummary(sum)
}

func runBackupList(cmd *cobra.Command, args []string) {
	paths, err := backup.List(cfg.BackupDir)
	if err != nil {
		exitErr("list backups", err)
	}
	printLines(paths)
}

func runBackupCopy(cmd *cobra.Command, args []string) {
	dst, err := backup.ExportCopy(args[0], args[1], time.Now())
	if err != nil {
		exitErr("copy backup", err)
	}
	fmt.Printf(`{"ok":true,"path":%q}`+"\n", dst)
}
