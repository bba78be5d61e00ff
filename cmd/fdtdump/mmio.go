package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/scigolib/fdt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMMIOCmd() *cobra.Command {
	var translate, bestEffort bool
	cmd := &cobra.Command{
		Use:   "mmio <file.dtb>",
		Short: "Discover MMIO regions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := fdt.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			depth := maxDepth
			if !translate {
				depth = 0
			}
			regions, err := p.DiscoverMMIORegions(depth)
			if err != nil {
				if !bestEffort {
					return err
				}
				logrus.WithError(err).Warn("fdt: translation failed, falling back to untranslated addresses")
				regions, err = p.DiscoverMMIORegions(0)
				if err != nil {
					return err
				}
			}

			report := make([]mmioEntry, len(regions))
			for i, r := range regions {
				report[i] = mmioEntry{
					Node:       r.Node.Name,
					Address:    r.ChildAddress,
					Translated: r.TranslatedAddress,
					Size:       r.Size,
				}
			}

			switch format {
			case "text":
				for _, e := range report {
					fmt.Printf("%-32s 0x%016x (phys 0x%016x) size 0x%x\n", e.Node, e.Address, e.Translated, e.Size)
				}
			case "yaml", "json":
				return writeStructured(format, report)
			default:
				return fmt.Errorf("unknown --format %q", format)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&translate, "translate", true, "translate addresses through the bus hierarchy")
	cmd.Flags().BoolVar(&bestEffort, "best-effort", false, "fall back to untranslated addresses instead of aborting on a translation error")
	return cmd
}

type mmioEntry struct {
	Node       string `yaml:"node" json:"node"`
	Address    uint64 `yaml:"address" json:"address"`
	Translated uint64 `yaml:"translated" json:"translated"`
	Size       uint64 `yaml:"size" json:"size"`
}

// writeStructured marshals v as either YAML (gopkg.in/yaml.v3, the
// teacher's transitive testify dependency promoted to a direct CLI
// concern) or JSON (stdlib encoding/json — no third-party JSON codec
// appears anywhere in the pack, and this output is a flat struct
// slice with no encoding subtlety stdlib can't handle).
func writeStructured(format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(v)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown structured format %q", format)
	}
}
