// Package main provides the vibe-liftover command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-liftover/internal/liftover"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// usageError marks errors caused by bad arguments rather than bad data.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// globalOptions holds state shared by every subcommand.
type globalOptions struct {
	cfgFile string
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:     "vibe-liftover",
		Short:   "Lift genomic intervals between assemblies using chain files",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Example: `  # Lift a BED file from hg19 to hg38
  vibe-liftover lift hg19ToHg38.over.chain.gz input.bed -o lifted.bed --unmapped unmapped.bed

  # Lift one region and show the candidate chains
  vibe-liftover lift hg19ToHg38.over.chain.gz --region chr1:1,000,000-1,000,500 --explain

  # Check a chain file for structural problems
  vibe-liftover validate hg19ToHg38.over.chain.gz`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(g.cfgFile); err != nil {
				return err
			}
			logger, err := newLogger(g.verbose)
			if err != nil {
				return err
			}
			g.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = g.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&g.cfgFile, "config", "", "Config file (default ~/.vibe-liftover.yaml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newLiftCmd(g))
	root.AddCommand(newValidateCmd(g))
	root.AddCommand(newConvertCmd(g))
	root.AddCommand(newConfigCmd())

	return root
}

// defaultHome returns ~/.vibe-liftover, the directory for caches.
func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vibe-liftover"
	}
	return filepath.Join(home, ".vibe-liftover")
}

// initConfig sets defaults and reads the config file and environment.
func initConfig(cfgFile string) error {
	viper.SetDefault("liftover.min_match", liftover.DefaultMinMatch)
	viper.SetDefault("liftover.multiple", false)
	viper.SetDefault("chain.strict", false)
	viper.SetDefault("chain.skip_invalid", false)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", filepath.Join(defaultHome(), "cache"))
	viper.SetDefault("workers", 0)

	viper.SetEnvPrefix("VIBE_LIFTOVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-liftover")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// newLogger builds a console logger writing to stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// bindFlags binds command flags to config keys. Called at run time so that
// commands sharing a key do not overwrite each other's binding.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}
