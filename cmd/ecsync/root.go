package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/ecsync/internal/app"
	"github.com/dshills/ecsync/internal/event"
	"github.com/dshills/ecsync/internal/logging"
	"github.com/dshills/ecsync/internal/transform"
)

// configName is the optional config file, read from the working directory
// and the home directory with any extension viper supports.
const configName = ".ecsyncrc"

// envFiles are loaded into the environment before configuration is read.
// Variables that are already set win.
var envFiles = []string{".env", ".env.local"}

// Configuration keys. Each can also be set as ECSYNC_<KEY> with dots
// replaced by underscores.
const (
	keyLogLevel    = "log_level"
	keyRoot        = "root"
	keySettings    = "settings"
	keySaveTimeout = "save_timeout"
	keyLockTimeout = "lock_timeout"
	keyDebounce    = "watch.debounce"
	keyNoGitignore = "no_gitignore"
	keyIgnore      = "ignore"
	keyReason      = "reason"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "ecsync",
		Short: "Apply EditorConfig settings to files",
		Long: `ecsync resolves .editorconfig files the way an editor does and runs the
pre-save transformations on workspace files: end_of_line,
trim_trailing_whitespace and insert_final_newline.

Workspace defaults for tab size, indent size and spaces are read from
.ecsync/settings.{yml,yaml,toml}.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}
			if level := v.GetString(keyLogLevel); !logging.ValidLevel(level) {
				return fmt.Errorf("invalid log level %q", level)
			}
			if _, err := transform.ParseSaveReason(v.GetString(keyReason)); err != nil {
				return err
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringP("root", "C", ".", "Workspace root directory")
	flags.String("settings", "", "Workspace settings file (default .ecsync/settings.{yml,yaml,toml})")
	flags.Duration("save-timeout", event.DefaultSaveTimeout, "How long a save waits for pre-save edits")
	flags.Duration("lock-timeout", 5*time.Second, "How long a save waits for the file lock")
	flags.Bool("no-gitignore", false, "Do not read the workspace .gitignore")
	flags.StringSlice("ignore", nil, "Additional gitignore-style patterns to skip")
	flags.String("reason", "manual", "Save reason (manual, after-delay, focus-out)")

	_ = v.BindPFlag(keyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(keyRoot, flags.Lookup("root"))
	_ = v.BindPFlag(keySettings, flags.Lookup("settings"))
	_ = v.BindPFlag(keySaveTimeout, flags.Lookup("save-timeout"))
	_ = v.BindPFlag(keyLockTimeout, flags.Lookup("lock-timeout"))
	_ = v.BindPFlag(keyNoGitignore, flags.Lookup("no-gitignore"))
	_ = v.BindPFlag(keyIgnore, flags.Lookup("ignore"))
	_ = v.BindPFlag(keyReason, flags.Lookup("reason"))

	v.SetDefault(keyDebounce, 100*time.Millisecond)
	v.SetEnvPrefix("ECSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	root.AddCommand(
		newFixCmd(v),
		newCheckCmd(v),
		newResolveCmd(v),
		newWatchCmd(v),
	)
	return root
}

// loadConfig reads .env files and the optional config file. Flags and
// environment variables override config file values.
func loadConfig(v *viper.Viper) error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v.SetConfigName(configName)
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// appOptions builds application options from flags, environment and
// defaults.
func appOptions(v *viper.Viper, cmd *cobra.Command) app.Options {
	reason, _ := transform.ParseSaveReason(v.GetString(keyReason))
	return app.Options{
		Root:         v.GetString(keyRoot),
		SettingsPath: v.GetString(keySettings),
		SaveTimeout:  v.GetDuration(keySaveTimeout),
		LockTimeout:  v.GetDuration(keyLockTimeout),
		Debounce:     v.GetDuration(keyDebounce),
		NoGitignore:  v.GetBool(keyNoGitignore),
		Ignore:       v.GetStringSlice(keyIgnore),
		Reason:       reason,
		Logger: logging.New(logging.Config{
			Level:      logging.ParseLevel(v.GetString(keyLogLevel)),
			Output:     cmd.ErrOrStderr(),
			Prefix:     "EditorConfig",
			Timestamps: true,
		}),
	}
}
