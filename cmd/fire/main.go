package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/RickyBoyd/fire/internal/config"
	"github.com/RickyBoyd/fire/internal/domain"
	"github.com/RickyBoyd/fire/internal/output"
	"github.com/RickyBoyd/fire/internal/simulation"
)

var (
	flagConfig      string
	flagFormat      string
	flagOut         string
	flagSimulations int
	flagSeed        uint64
	flagWorkers     int
	flagVerbose     bool
)

func main() {
	root := &cobra.Command{
		Use:   "fire",
		Short: "Monte Carlo retirement feasibility engine",
		Long: "fire sweeps candidate retirement (or contribution-stop) ages and reports\n" +
			"Monte Carlo success probabilities, balance percentiles, and an illustrative\n" +
			"cashflow trace, with a bisection solver for contribution and income goals.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "fire.yaml", "path to the YAML input file")
	root.PersistentFlags().StringVarP(&flagFormat, "format", "f", "console", "output format (console or json)")
	root.PersistentFlags().StringVarP(&flagOut, "out", "o", "", "write output to file instead of stdout")
	root.PersistentFlags().IntVar(&flagSimulations, "simulations", 0, "override the simulation count")
	root.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "override the random seed")
	root.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "worker pool size (default: machine parallelism)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newSweepCommand())
	root.AddCommand(newCoastCommand())
	root.AddCommand(newSolveCommand())
	root.AddCommand(newInitCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
}

// loadEngine parses the config, applies CLI overrides, and builds an engine.
func loadEngine(logger zerolog.Logger) (*simulation.Engine, error) {
	parser := config.NewInputParser()
	inputs, err := parser.LoadFromFile(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagSimulations > 0 {
		inputs.Simulations = flagSimulations
	}
	if flagSeed != 0 {
		inputs.Seed = flagSeed
	}

	engine, err := simulation.NewEngine(inputs)
	if err != nil {
		return nil, err
	}
	engine.SetLogger(logger)
	if flagWorkers > 0 {
		engine.SetWorkers(flagWorkers)
	}
	return engine, nil
}

func writeModelResult(result *domain.ModelResult) error {
	formatter, err := output.ByName(flagFormat)
	if err != nil {
		return err
	}
	return output.WriteFormatted(formatter, result, flagOut)
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Sweep candidate retirement ages",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			engine, err := loadEngine(logger)
			if err != nil {
				return err
			}
			logger.Info().Str("config", flagConfig).Msg("running retirement sweep")
			result, err := engine.RunRetirementSweep(cmd.Context())
			if err != nil {
				return err
			}
			return writeModelResult(result)
		},
	}
}

func newCoastCommand() *cobra.Command {
	var retirementAge int
	cmd := &cobra.Command{
		Use:   "coast",
		Short: "Sweep coast-FIRE contribution-stop ages",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			engine, err := loadEngine(logger)
			if err != nil {
				return err
			}
			var target *int
			if retirementAge > 0 {
				target = &retirementAge
			}
			logger.Info().Str("config", flagConfig).Msg("running coast-FIRE sweep")
			result, err := engine.RunCoast(cmd.Context(), target)
			if err != nil {
				return err
			}
			return writeModelResult(result)
		},
	}
	cmd.Flags().IntVar(&retirementAge, "retirement-age", 0, "coast target retirement age (default: best age from a retirement sweep)")
	return cmd
}

func newSolveCommand() *cobra.Command {
	var (
		goal             string
		age              int
		threshold        float64
		searchMin        float64
		searchMax        float64
		tolerance        float64
		maxIterations    int
		probeSimulations int
		finalSimulations int
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve for required contribution or maximum sustainable income",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			engine, err := loadEngine(logger)
			if err != nil {
				return err
			}

			cfg := domain.GoalSolveConfig{
				GoalType:                domain.GoalType(goal),
				TargetRetirementAge:     age,
				TargetSuccessThreshold:  decimal.NewFromFloat(threshold),
				SearchMin:               decimal.NewFromFloat(searchMin),
				SearchMax:               decimal.NewFromFloat(searchMax),
				Tolerance:               decimal.NewFromFloat(tolerance),
				MaxIterations:           maxIterations,
				SimulationsPerIteration: probeSimulations,
				FinalSimulations:        finalSimulations,
			}
			logger.Info().Str("goal", goal).Int("age", age).Msg("running goal solver")
			result, err := engine.SolveGoal(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if flagFormat == "json" {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				if flagOut != "" {
					return os.WriteFile(flagOut, data, 0o644)
				}
				_, err = os.Stdout.Write(data)
				return err
			}
			rendered := output.FormatGoalResult(result)
			if flagOut != "" {
				return os.WriteFile(flagOut, []byte(rendered), 0o644)
			}
			fmt.Print(rendered)
			return nil
		},
	}
	cmd.Flags().StringVar(&goal, "goal", string(domain.GoalRequiredContribution), "goal type (required-contribution or max-income)")
	cmd.Flags().IntVar(&age, "age", 0, "target retirement age")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.90, "target success threshold")
	cmd.Flags().Float64Var(&searchMin, "min", 0, "search lower bound")
	cmd.Flags().Float64Var(&searchMax, "max", 100000, "search upper bound")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 100, "bisection tolerance")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 20, "maximum bisection iterations")
	cmd.Flags().IntVar(&probeSimulations, "probe-simulations", 1000, "simulations per bisection probe")
	cmd.Flags().IntVar(&finalSimulations, "final-simulations", 10000, "simulations for the confirmation run")
	_ = cmd.MarkFlagRequired("age")
	return cmd
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write an example configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "fire.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists; refusing to overwrite", path)
			}
			parser := config.NewInputParser()
			if err := parser.WriteExampleFile(path); err != nil {
				return err
			}
			fmt.Printf("wrote example configuration to %s\n", path)
			return nil
		},
	}
}
