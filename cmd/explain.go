package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datafuel/ramjet/graph"
)

// explainCmd prints the optimized tree without running it, either as an
// indented text dump or as a graphviz document.
var explainCmd = &cobra.Command{
	Use:   "explain <program.json>",
	Args:  cobra.ExactArgs(1),
	Short: "Show the program tree after optimization",
	RunE: func(cmd *cobra.Command, args []string) error {
		program, _, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		if optimizeFlag {
			program, err = optimizeProgram(program)
			if err != nil {
				return err
			}
		}

		if dot {
			g, err := graph.Program(&program)
			if err != nil {
				return fmt.Errorf("couldn't render program graph: %w", err)
			}
			fmt.Print(g.String())
			return nil
		}
		fmt.Print(program.Describe())
		return nil
	},
}

var dot bool

func init() {
	explainCmd.Flags().BoolVar(&dot, "dot", false, "Emit graphviz instead of text.")
	explainCmd.Flags().BoolVar(&optimizeFlag, "optimize", true, "Whether ramjet should optimize the program.")
	rootCmd.AddCommand(explainCmd)
}
