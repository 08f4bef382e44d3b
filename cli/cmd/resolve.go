package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	hocon "github.com/mikai233/hocon-go"
)

var outputFormat string

var resolveCmd = &cobra.Command{
	Use:   "resolve <file>...",
	Short: "Resolve HOCON files, merging them in order, and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := hocon.LoadAll(args, &hocon.Options{ClasspathRoots: roots})
		if err != nil {
			return err
		}
		switch outputFormat {
		case "json":
			buf, err := json.MarshalIndent(cfg.Value(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(buf))
			return nil
		case "yaml":
			node, err := valueToYAMLNode(cfg.Value())
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(node)
		default:
			return fmt.Errorf("unknown output format %q (want json or yaml)", outputFormat)
		}
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(resolveCmd)
}
