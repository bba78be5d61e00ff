// Command fdtdump inspects a Flattened Device Tree blob: printing its
// node tree, translating a single device address through the bus
// hierarchy, or discovering every MMIO region it declares.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	format   string
	maxDepth int
	verbose  bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fdtdump",
		Short: "Inspect Flattened Device Tree (DTB) blobs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&format, "format", "text", "output format: text, yaml, json")
	root.PersistentFlags().IntVar(&maxDepth, "max-depth", 32, "maximum ranges-translation recursion depth")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newDumpCmd(), newTranslateCmd(), newMMIOCmd())
	return root
}
