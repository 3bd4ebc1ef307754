package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the problems of the suite",
	Long: `Lists every problem instance of the configured suite with its
dimension, transformation depth and best known value.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listFormat, "format", "o", "table", "Output format: table, json, yaml")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := loadSuite()
	if err != nil {
		return err
	}
	defer closeSuite(s)

	out := cmd.OutOrStdout()
	infos := s.Infos()

	switch listFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(infos); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tID\tDIM\tDEPTH\tBEST VALUE")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\n", info.Key, info.ID, info.Dimension, info.Depth, info.BestValue)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q", listFormat)
	}
}
