package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "PROPSETUP"
	configFileName = "propsetup"
	configFileType = "yaml"

	cfgKeyDataDir     = "data_dir"
	cfgKeyLogLevel    = "log_level"
	cfgKeyMetricsFile = "metrics_file"
)

var (
	settings   *viper.Viper
	logger     *slog.Logger
	preset     string
	outputPath string
	arcLabel   string
	maxPlots   int
	live       bool
	plane      string
	track      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "propsetup",
		Short:         "describe, validate and propagate orbital propagation setups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			settings = v
			logger = newLogger(v.GetString(cfgKeyLogLevel))
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("data", ".propsetup", "data directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("metrics-file", "", "write prometheus metrics to this textfile after propagating")

	scenarioFlags := func(cmd *cobra.Command) *cobra.Command {
		cmd.Flags().StringVar(&preset, "preset", "", "use a preset scenario instead of a file")
		return cmd
	}

	validateCmd := scenarioFlags(&cobra.Command{
		Use:   "validate [scenario.yaml]",
		Short: "build a scenario and create its models",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateScenario,
	})

	describeCmd := scenarioFlags(&cobra.Command{
		Use:   "describe [scenario.yaml]",
		Short: "show the propagator settings of a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  describeScenario,
	})

	parametersCmd := scenarioFlags(&cobra.Command{
		Use:   "parameters [scenario.yaml]",
		Short: "list the estimated parameters of a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listParameters,
	})

	propagateCmd := scenarioFlags(&cobra.Command{
		Use:   "propagate [scenario.yaml]",
		Short: "propagate a scenario and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  propagate,
	})
	propagateCmd.Flags().BoolVar(&live, "live", false, "follow the propagation in an interactive view")
	propagateCmd.Flags().StringVar(&plane, "plane", "xy", "projection plane of the live view (xy, xz, yz)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the states of one arc of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&arcLabel, "arc", "", "arc label (default: first arc)")
	plotCmd.Flags().IntVar(&maxPlots, "max", 6, "maximum number of state entries to plot")
	plotCmd.Flags().BoolVar(&track, "track", false, "draw the position track instead of per-entry graphs")
	plotCmd.Flags().StringVar(&plane, "plane", "xy", "projection plane of the track (xy, xz, yz)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	rootCmd.AddCommand(validateCmd, describeCmd, parametersCmd, propagateCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// loadSettings merges flags, PROPSETUP_* variables and an optional
// propsetup.yaml from the working directory or the user config directory.
func loadSettings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyDataDir, ".propsetup")
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyMetricsFile, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "propsetup"))
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		cfgKeyDataDir:     "data",
		cfgKeyLogLevel:    "log-level",
		cfgKeyMetricsFile: "metrics-file",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
