package main

import (
	"fmt"
	"strconv"

	"github.com/scigolib/fdt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newTranslateCmd() *cobra.Command {
	var bestEffort bool
	cmd := &cobra.Command{
		Use:   "translate <file.dtb> <node-path> <addr> [size]",
		Short: "Translate a device-bus address at node-path to a CPU-visible physical address",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := fdt.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			node, ok := p.Root().FindNodeByPath(args[1])
			if !ok {
				return fmt.Errorf("no such node: %s", args[1])
			}
			addr, err := strconv.ParseUint(args[2], 0, 64)
			if err != nil {
				return fmt.Errorf("invalid address %q: %w", args[2], err)
			}
			var size uint64
			if len(args) == 4 {
				size, err = strconv.ParseUint(args[3], 0, 64)
				if err != nil {
					return fmt.Errorf("invalid size %q: %w", args[3], err)
				}
			}

			translated, err := p.TranslateAddress(node, addr, size, maxDepth)
			if err != nil {
				if !bestEffort {
					return err
				}
				logrus.WithError(err).Warn("fdt: translation failed, reporting the untranslated address")
				translated = addr
			}
			fmt.Printf("0x%x -> 0x%x\n", addr, translated)
			return nil
		},
	}
	cmd.Flags().BoolVar(&bestEffort, "best-effort", false, "fall back to the untranslated address instead of aborting on a translation error")
	return cmd
}
