package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/datafuel/ramjet/config"
	"github.com/datafuel/ramjet/interpreter"
	"github.com/datafuel/ramjet/optimizer"
	"github.com/datafuel/ramjet/ram"
	"github.com/datafuel/ramjet/serialization"
)

var rootCmd = &cobra.Command{
	Use:   "ramjet <program.json>",
	Args:  cobra.ExactArgs(1),
	Short: "Optimize and execute RAM programs",
	Example: `ramjet program.json
ramjet --optimize=false program.json
ramjet --profile cpu program.json`,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		switch profileFlag {
		case "":
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		case "memory":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
		default:
			return fmt.Errorf("invalid profile type: %s", profileFlag)
		}

		program, facts, err := loadProgram(args[0])
		if err != nil {
			return err
		}

		if optimizeFlag {
			program, err = optimizeProgram(program)
			if err != nil {
				return err
			}
		}

		store := interpreter.NewStore(&program)
		if err := seedFacts(store, facts); err != nil {
			return err
		}

		start := time.Now()
		if err := interpreter.NewInterpreter(&program, store).Run(ctx); err != nil {
			return fmt.Errorf("couldn't run program: %w", err)
		}
		if verbose {
			log.Printf("time for execution: %s", time.Since(start))
		}

		return printOutputRelations(&program, store)
	},
}

func loadProgram(path string) (ram.Program, serialization.Facts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ram.Program{}, nil, fmt.Errorf("couldn't read program file: %w", err)
	}
	program, facts, err := serialization.DecodeProgram(data)
	if err != nil {
		return ram.Program{}, nil, fmt.Errorf("couldn't decode program: %w", err)
	}
	return program, facts, nil
}

func optimizeProgram(program ram.Program) (ram.Program, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return ram.Program{}, fmt.Errorf("couldn't read config: %w", err)
	}

	// Non-nil even when everything is disabled; a nil pass list would make
	// the optimizer fall back to its defaults.
	passes := make([]optimizer.Pass, 0, len(optimizer.DefaultPasses))
	for _, pass := range optimizer.DefaultPasses {
		if !cfg.PassDisabled(pass.Name) {
			passes = append(passes, pass)
		}
	}

	start := time.Now()
	optimized, _, err := optimizer.Optimize(program, optimizer.Options{
		Passes:        passes,
		Fixpoint:      cfg.Optimizer.Fixpoint,
		MaxIterations: cfg.Optimizer.MaxIterations,
		Verbose:       verbose,
	})
	if err != nil {
		return ram.Program{}, fmt.Errorf("couldn't optimize program: %w", err)
	}
	if verbose {
		log.Printf("time for optimization: %s", time.Since(start))
	}
	return optimized, nil
}

func seedFacts(store *interpreter.Store, facts serialization.Facts) error {
	for relation, tuples := range facts {
		for _, tuple := range tuples {
			if err := store.Insert(relation, tuple); err != nil {
				return fmt.Errorf("couldn't seed facts: %w", err)
			}
		}
	}
	return nil
}

func printOutputRelations(program *ram.Program, store *interpreter.Store) error {
	for _, relation := range program.Relations {
		if !relation.Output {
			continue
		}
		tuples, err := store.Contents(relation.Name)
		if err != nil {
			return fmt.Errorf("couldn't read output relation: %w", err)
		}

		fmt.Println(relation.Name)
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader(relation.Attributes)
		table.SetAutoFormatHeaders(false)
		for _, tuple := range tuples {
			row := make([]string, len(tuple))
			for i := range tuple {
				row[i] = fmt.Sprintf("%d", tuple[i])
			}
			table.Append(row)
		}
		table.Render()
	}
	return nil
}

func Execute(ctx context.Context) {
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

var configPath string
var optimizeFlag bool
var profileFlag string
var verbose bool

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file. Defaults to ~/.ramjet/config.yml")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log pass and execution timings.")
	rootCmd.Flags().BoolVar(&optimizeFlag, "optimize", true, "Whether ramjet should optimize the program.")
	rootCmd.Flags().StringVar(&profileFlag, "profile", "", "Enable profiling: cpu or memory.")
}
