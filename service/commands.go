package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newDBCmd(opts *options) *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Manage the post database",
	}

	var yes bool
	clean := &cobra.Command{
		Use:   "clean",
		Short: "Remove the post database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return cleanDB(cmd, cfg.DBPath, yes)
		},
	}
	clean.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initDB(cmd, opts)
		},
	}

	var backupDir string
	backup := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return backupDB(cmd, opts, backupDir)
		},
	}
	backup.Flags().StringVar(&backupDir, "dir", filepath.Join("data", "backups"), "directory backups are written to")

	var replace bool
	restore := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the database from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return restoreDB(cmd, opts, args[0], replace)
		},
	}
	restore.Flags().BoolVarP(&replace, "yes", "y", false, "replace an existing database without asking")

	db.AddCommand(initCmd, clean, backup, restore)
	return db
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	var response string
	fmt.Fscanln(cmd.InOrStdin(), &response)
	return response == "y" || response == "Y"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// cleanDB removes the database directory.
func cleanDB(cmd *cobra.Command, dbPath string, yes bool) error {
	out := cmd.OutOrStdout()
	if !exists(dbPath) {
		fmt.Fprintln(out, "Database is already clean (does not exist)")
		return nil
	}
	if !yes && !confirm(cmd, "Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Fprintln(out, "Operation cancelled")
		return nil
	}
	if err := os.RemoveAll(dbPath); err != nil {
		return errors.Wrap(err, "failed to clean database")
	}
	fmt.Fprintln(out, "Database cleaned successfully")
	return nil
}

// initDB creates a new empty database.
func initDB(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if exists(cfg.DBPath) {
		fmt.Fprintln(out, "Database already exists. Use 'db clean' first if you want to reinitialize.")
		return nil
	}
	if err := os.MkdirAll(cfg.DBPath, 0o755); err != nil {
		return errors.Wrap(err, "failed to create database directory")
	}
	log, err := commandLogger(cmd, cfg)
	if err != nil {
		return err
	}
	repo, err := openRepository(cfg, log)
	if err != nil {
		return err
	}
	if err := repo.Close(); err != nil {
		return errors.Wrap(err, "close database")
	}
	fmt.Fprintln(out, "Database initialized successfully")
	return nil
}

// backupDB writes a timestamped backup file into dir.
func backupDB(cmd *cobra.Command, opts *options, dir string) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if !exists(cfg.DBPath) {
		return errors.New("no database exists to backup")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create backup directory")
	}
	log, err := commandLogger(cmd, cfg)
	if err != nil {
		return err
	}
	repo, err := openRepository(cfg, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	backupFile := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		return errors.Wrap(err, "failed to create backup file")
	}
	defer f.Close()

	if err := repo.Backup(f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", backupFile)
	return nil
}

// restoreDB replaces the database with the contents of backupFile.
func restoreDB(cmd *cobra.Command, opts *options, backupFile string, replace bool) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	f, err := os.Open(backupFile)
	if err != nil {
		return errors.Wrapf(err, "backup file %s", backupFile)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat backup file")
	}
	if fi.Size() == 0 {
		return errors.Errorf("backup file is empty: %s", backupFile)
	}

	if exists(cfg.DBPath) {
		if !replace && !confirm(cmd, "Existing database found. Do you want to replace it?") {
			fmt.Fprintln(out, "Operation cancelled")
			return nil
		}
		if err := os.RemoveAll(cfg.DBPath); err != nil {
			return errors.Wrap(err, "failed to remove existing database")
		}
	}
	if err := os.MkdirAll(cfg.DBPath, 0o755); err != nil {
		return errors.Wrap(err, "failed to create database directory")
	}

	log, err := commandLogger(cmd, cfg)
	if err != nil {
		return err
	}
	repo, err := openRepository(cfg, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Restore(f); err != nil {
		return err
	}
	fmt.Fprintln(out, "Database restored successfully")
	return nil
}
