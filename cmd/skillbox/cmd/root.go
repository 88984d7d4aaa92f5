package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"skillbox/cmd/skillbox/globals"
	"skillbox/cmd/skillbox/utils"
	"skillbox/internal/components/chrono"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/restyutil"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/config"
	"skillbox/lib/osutil"

	"github.com/spf13/cobra"
)

// exitError ends the process with code after the command already reported
// what went wrong.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// failed writes the error document of err to stderr and ends with exit code 1.
func failed(cmd *cobra.Command, err error) error {
	utils.WriteJSON(cmd.ErrOrStderr(), fault.ToDocument(err), false)
	return exitError{code: 1}
}

type rootFlags struct {
	configPath string
	verbose    bool
	dumpDir    string
}

// newRootCmd builds the command tree, every command reads the clock from
// time. The otel providers installed while running a command are stored in
// otel.
func newRootCmd(time chrono.TimeAPI, otel *telemetry.Telemetry) *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "skillbox",
		Short:         "skillbox fetches AI assistant quotas and Taiwan stock market data.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			telemetry.InitSlog(cmd.ErrOrStderr(), flags.verbose)

			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}

			*otel, err = telemetry.SetupFromEnv(cmd.Context(), "skillbox")
			if err != nil {
				slog.Warn("failed to setup otel, continuing without it", "err", err)
			}

			value := &globals.Value{
				Config: cfg,
				Time:   time,
				Tel:    telemetry.SlogAPI{},
			}
			if flags.dumpDir != "" {
				out, err := restyutil.NewFilesystemOutput(flags.dumpDir)
				if err != nil {
					return fmt.Errorf("create http dump directory: %w", err)
				}
				value.Dump = out
			}

			cmd.SetContext(globals.Set(cmd.Context(), value))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to skillbox.json5 (searched for from the cwd by default)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug messages to stderr")
	rootCmd.PersistentFlags().StringVar(&flags.dumpDir, "dump-http", "", "write every http request/response to this directory")

	rootCmd.AddCommand(
		newEmergingCmd(),
		newTwseCmd(),
		newTpexCmd(),
		newInstitutionalCmd(),
		newQuotaCmd(),
		newNewsCmd(),
		newInitTaskCmd(),
	)
	return rootCmd
}

// Run executes the command line args and returns the exit code.
func Run(ctx context.Context, time chrono.TimeAPI, args []string, stdout, stderr io.Writer) int {
	var otel telemetry.Telemetry
	rootCmd := newRootCmd(time, &otel)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if shutdownErr := otel.Shutdown(context.Background()); shutdownErr != nil {
		slog.Warn("failed to flush otel", "err", shutdownErr)
	}
	if err == nil {
		return 0
	}
	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(stderr, err)
	return 1
}

func Execute(time chrono.TimeAPI) {
	ctx, cancel := osutil.SignalContext(context.Background())
	code := Run(ctx, time, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
