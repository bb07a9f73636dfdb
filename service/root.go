package service

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X socialpost/service.Version=...".
var Version = "dev"

// options are the flags shared by every command.
type options struct {
	envFile string
	dbPath  string
}

// NewRootCmd builds the socialpost command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "socialpost",
		Short:         "Manage AI generated social posts for a shop",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before the environment")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database directory (overrides DB_PATH)")

	root.AddCommand(
		newServeCmd(opts),
		newVersionCmd(),
		newDBCmd(opts),
		newPostsCmd(opts),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "socialpost version %s\n", Version)
		},
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
