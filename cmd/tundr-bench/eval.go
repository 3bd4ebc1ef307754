package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	evalAtOptimum bool
	evalJSON      bool
)

var evalCmd = &cobra.Command{
	Use:   "eval KEY [X1 X2 ...]",
	Short: "Evaluate a problem at a point",
	Long: `Evaluates the problem instance KEY at the given coordinates and
prints the objective value. With --at-optimum the best known parameter is
used instead, which reproduces the best known value.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().BoolVar(&evalAtOptimum, "at-optimum", false, "Evaluate at the best known parameter")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	key := args[0]

	s, err := loadSuite()
	if err != nil {
		return err
	}
	defer closeSuite(s)

	info, err := s.Describe(key)
	if err != nil {
		return err
	}

	var x []float64
	if evalAtOptimum {
		if len(args) > 1 {
			return fmt.Errorf("coordinates cannot be combined with --at-optimum")
		}
		x = info.BestParameter
	} else {
		x = make([]float64, 0, len(args)-1)
		for i, arg := range args[1:] {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("coordinate %d: %w", i, err)
			}
			x = append(x, v)
		}
	}

	y, err := s.Evaluate(key, x)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if evalJSON {
		return json.NewEncoder(out).Encode(map[string]interface{}{
			"key":        key,
			"x":          x,
			"y":          y,
			"best_value": info.BestValue,
		})
	}
	fmt.Fprintf(out, "%s: f(x) = %.17g (best %.17g)\n", key, y[0], info.BestValue)
	return nil
}
