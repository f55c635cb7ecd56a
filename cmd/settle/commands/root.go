package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/settle-sh/settle/internal/version"
	"github.com/settle-sh/settle/pkg/backup"
	"github.com/settle-sh/settle/pkg/config"
	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/filesystem"
	"github.com/settle-sh/settle/pkg/installer"
	"github.com/settle-sh/settle/pkg/journal"
	"github.com/settle-sh/settle/pkg/logging"
	"github.com/settle-sh/settle/pkg/mutate"
	"github.com/settle-sh/settle/pkg/paths"
	"github.com/settle-sh/settle/pkg/privilege"
	"github.com/settle-sh/settle/pkg/reversal"
	"github.com/settle-sh/settle/pkg/types"
	"github.com/settle-sh/settle/pkg/ui/confirmations"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity  int
		dryRun     bool
		reverse    bool
		uninstall  bool
		configFile string
	)

	rootCmd := &cobra.Command{
		Use:     "settle",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := types.NewRunContext(dryRun, reverse || uninstall)
			return run(cmd, ctx, configFile)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.Flags().BoolVarP(&reverse, "reverse", "r", false, MsgFlagReverse)
	rootCmd.Flags().BoolVar(&uninstall, "uninstall", false, MsgFlagReverse)
	rootCmd.Flags().StringVar(&configFile, "config", "", MsgFlagConfig)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenConfigCmd())

	return rootCmd
}

// run wires the components for one invocation and dispatches on mode.
func run(cmd *cobra.Command, ctx types.RunContext, configFile string) error {
	p, err := paths.New("")
	if err != nil {
		return err
	}

	candidates := p.ConfigFileCandidates()
	if configFile != "" {
		candidates = []string{configFile}
	}
	cfg, err := config.Load(candidates)
	if err != nil {
		return err
	}

	fs := filesystem.NewOS()
	jnl := journal.New(p.JournalFile(), ctx)
	gate := confirmations.NewConsoleGate(ctx)

	if ctx.Reverse {
		strategy := privilege.NewStrategy(fs, privilege.ExecRunner{}, paths.PrivilegedRoots())
		launcherLink := ""
		if cfg.Launcher != "" {
			launcherLink = p.LauncherLink(filepath.Base(cfg.Launcher))
		}
		eng := reversal.New(fs, ctx, jnl, strategy, gate, reversal.Options{
			LauncherLink: launcherLink,
			BackupRoot:   p.BackupsRoot(),
			Out:          cmd.OutOrStdout(),
		})
		if _, err := eng.Run(); err != nil {
			if errors.IsErrorCode(err, errors.ErrUserDeclined) {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDeclined)
				return nil
			}
			return err
		}
		return nil
	}

	store := backup.NewStore(fs, p.BackupRunDir(ctx.RunStamp), ctx)
	mut := mutate.New(fs, store, jnl, ctx)
	inst := installer.New(fs, ctx, mut, gate, cfg, p, cmd.OutOrStdout())

	if err := inst.Run(); err != nil {
		if errors.IsErrorCode(err, errors.ErrUserDeclined) {
			fmt.Fprintln(cmd.OutOrStdout(), MsgDeclined)
			return nil
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s. Undo anytime with: settle --reverse\n", cfg.DisplayName)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "settle version %s\n", version.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.Date)
		},
	}
}

func newGenConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genconfig",
		Short: "Print a starter configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Example()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
