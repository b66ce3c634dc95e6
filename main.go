package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chazu/batoms/pkg/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	outputFormat string
	logLevel     string
	workers      int

	app *App

	rootCmd = &cobra.Command{
		Use:   "batoms",
		Short: "Cavity detection, neighbor lists and bond geometry for atomic structures",
		Long: `batoms evaluates a structure script and runs the numeric core over it:
cavity detection on the first frame, the neighbor list across all frames
and bond placement for every frame.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	cavityCmd = &cobra.Command{
		Use:   "cavity <script>",
		Short: "Detect empty spherical regions in a periodic structure",
		Args:  cobra.ExactArgs(1),
		RunE:  runCavity,
	}
	bondsCmd = &cobra.Command{
		Use:   "bonds <script>",
		Short: "Build the neighbor list and resolve bonds",
		Args:  cobra.ExactArgs(1),
		RunE:  runBonds,
	}
	runCmd = &cobra.Command{
		Use:   "run <script>",
		Short: "Run every stage and print the combined result",
		Args:  cobra.ExactArgs(1),
		RunE:  runAll,
	}
	instancersCmd = &cobra.Command{
		Use:   "instancers <script>",
		Short: "Run every stage and print the instancer template meshes",
		Args:  cobra.ExactArgs(1),
		RunE:  runInstancers,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a batoms.toml configuration file")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatJSON,
		"Output format: json, yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level, overrides the config file")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Cavity detection workers, overrides the config file")

	rootCmd.AddCommand(cavityCmd, bondsCmd, runCmd, instancersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	cfg := DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = LoadConfig(configPath); err != nil {
			return err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	app = NewAppWithConfig(cfg, log)
	return nil
}

// loadScript reads and evaluates the script at path. Script errors are
// printed to stderr and summed into the returned error.
func loadScript(cmd *cobra.Command, path string) (*model.System, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sys, evalErrs, err := app.Load(string(src))
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		printErrors(cmd, path, evalErrs)
		return nil, fmt.Errorf("%s: %d script error(s)", path, len(evalErrs))
	}
	return sys, nil
}

func printErrors(cmd *cobra.Command, path string, errs []EvalErrorData) {
	for _, e := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d: %s\n", path, e.Line, e.Message)
	}
}

// runCavity detects cavities whether or not the script enabled them.
func runCavity(cmd *cobra.Command, args []string) error {
	sys, err := loadScript(cmd, args[0])
	if err != nil {
		return err
	}
	res, err := app.Pipeline().Cavity(context.Background(), sys)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outputFormat, res)
}

func runBonds(cmd *cobra.Command, args []string) error {
	sys, err := loadScript(cmd, args[0])
	if err != nil {
		return err
	}
	res, err := app.Pipeline().Bonds(sys)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outputFormat, res)
}

func runAll(cmd *cobra.Command, args []string) error {
	return evaluate(cmd, args[0], func(r EvalResult) any { return r.Result })
}

func runInstancers(cmd *cobra.Command, args []string) error {
	return evaluate(cmd, args[0], func(r EvalResult) any { return r.Meshes })
}

func evaluate(cmd *cobra.Command, path string, pick func(EvalResult) any) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r := app.Evaluate(string(src))
	if len(r.Errors) > 0 {
		printErrors(cmd, path, r.Errors)
		return fmt.Errorf("%s: %d error(s)", path, len(r.Errors))
	}
	return writeOutput(cmd.OutOrStdout(), outputFormat, pick(r))
}
