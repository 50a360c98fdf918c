package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/config"
)

type rootCmdConfig struct {
	verbose    bool
	configPath string
	logFile    string
	logFormat  string
	loader     *config.Loader
	cfg        *config.Config
	logger     *slog.Logger
	closeLog   func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cliParser().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	config := &rootCmdConfig{loader: configLoader()}
	rootCmd := &cobra.Command{
		Use:   "mcuforest",
		Short: "mcuforest is a tool to grow random forests over quantized data",
		Long: `A tool to train, tune and test random forests over quantized categorical
features, small enough to be run on microcontrollers, and to use them to
make predictions`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if config.closeLog != nil {
				return config.closeLog()
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log debug messages")
	rootCmd.PersistentFlags().StringVarP(&(config.configPath), "config", "c", "", "path to a YAML config file (settings can also be given as MCUFOREST_* environment variables)")
	rootCmd.PersistentFlags().StringVar(&(config.logFile), "log-file", "", "path to a file to log to, rotated as it grows (defaults to STDERR)")
	rootCmd.PersistentFlags().StringVar(&(config.logFormat), "log-format", "", "log format, text or json")
	config.bind(rootCmd, "log.file", "log-file")
	config.bind(rootCmd, "log.format", "log-format")
	config.settingFlags(rootCmd)
	rootCmd.AddCommand(
		versionCmd(),
		trainCmd(config),
		tuneCmd(config),
		testCmd(config),
		predictCmd(config),
		splitCmd(config),
		setCmd(config),
		treeCmd(config),
	)
	return rootCmd
}

// bind makes the flag with the given name on cmd override the config
// setting under key. Flags are looked up among the local and persistent
// flags of cmd.
func (rcc *rootCmdConfig) bind(cmd *cobra.Command, key, name string) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	if err := rcc.loader.BindFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", name, err))
	}
}

func configLoader() *config.Loader {
	return config.NewLoader()
}

// fail prints err to STDERR and exits with the given code after
// releasing the log output.
func (rcc *rootCmdConfig) fail(code int, err error) {
	fmt.Fprintln(os.Stderr, err)
	if rcc.logger != nil {
		rcc.logger.Debug("command failed", "code", code, "error", err)
	}
	if rcc.closeLog != nil {
		rcc.closeLog()
	}
	os.Exit(code)
}
