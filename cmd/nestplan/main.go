package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/nestplan/nestplan/internal/calculation"
	"github.com/nestplan/nestplan/internal/config"
	"github.com/nestplan/nestplan/internal/output"
	"github.com/nestplan/nestplan/internal/server"
)

// simpleCLILogger implements calculation.Logger using the standard log package
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "nestplan %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(os.Stdout, info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "nestplan",
	Short: "Household financial projection CLI",
	Long:  "Deterministic month-by-month projection of household accounts, expenses and savings goals",
}

var runCmd = &cobra.Command{
	Use:   "run [plan-file]",
	Short: "Run a projection for a plan file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		planFile := args[0]

		parser := config.NewInputParser()
		plan, err := parser.LoadFromFile(planFile)
		if err != nil {
			log.Fatal(err)
		}

		engine := calculation.NewSimulationEngine()
		debugMode, _ := cmd.Flags().GetBool("debug")
		if debugMode {
			engine.SetLogger(simpleCLILogger{})
		}

		result, err := engine.Run(context.Background(), plan)
		if err != nil {
			log.Fatal(err)
		}

		outputFormat, _ := cmd.Flags().GetString("format")
		outputFile, _ := cmd.Flags().GetString("output")

		if err := output.Write(result, outputFormat, outputFile); err != nil {
			log.Fatal(err)
		}
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [plan-file]",
	Short: "Validate a plan file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		planFile := args[0]

		parser := config.NewInputParser()
		if _, err := parser.LoadFromFile(planFile); err != nil {
			log.Fatal(err)
		}

		fmt.Printf("Plan file %s is valid\n", planFile)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the projection engine over HTTP",
	Long:  "Start an HTTP server exposing POST /v1/simulate. Configured via NESTPLAN_* environment variables.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := server.ConfigFromEnv()
		if err != nil {
			log.Fatal(err)
		}

		engine := calculation.NewSimulationEngine()
		debugMode, _ := cmd.Flags().GetBool("debug")
		if debugMode {
			engine.SetLogger(simpleCLILogger{})
		}

		srv := server.New(cfg, engine)
		log.Printf("listening on %s", cfg.Address)
		if err := srv.ListenAndServe(); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	runCmd.Flags().StringP("format", "f", "console", "Output format (console, csv, json)")
	runCmd.Flags().StringP("output", "o", "", "Write output to a file instead of stdout")
	runCmd.Flags().Bool("debug", false, "Enable debug output for detailed calculations")

	serveCmd.Flags().Bool("debug", false, "Enable debug output for detailed calculations")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
