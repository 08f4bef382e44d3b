package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	hocon "github.com/mikai233/hocon-go"
	"github.com/mikai233/hocon-go/hoconparser"
)

var getCmd = &cobra.Command{
	Use:   "get <file> <path>",
	Short: "Print a single value from a resolved HOCON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := hocon.Load(args[0], &hocon.Options{ClasspathRoots: roots})
		if err != nil {
			return err
		}
		v, ok := cfg.Get(args[1])
		if !ok {
			return fmt.Errorf("no value at path %q", args[1])
		}
		// bare strings print raw, everything else as JSON
		if s, isString := v.(hoconparser.String); isString {
			fmt.Fprintln(os.Stdout, string(s))
			return nil
		}
		buf, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(buf))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
