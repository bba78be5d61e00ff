package main

import (
	"fmt"
	"strings"

	"github.com/scigolib/fdt"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.dtb>",
		Short: "Print the node tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := fdt.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			switch format {
			case "text":
				printTree(p.Root(), 0)
			case "yaml", "json":
				return writeStructured(format, reservationReport(p))
			default:
				return fmt.Errorf("unknown --format %q", format)
			}
			return nil
		},
	}
}

func printTree(n *fdt.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s\n", indent, nodeLabel(n))
	for _, p := range n.Properties {
		fmt.Printf("%s  %s = %s\n", indent, p.Name, formatValue(p.Value))
	}
	for i := range n.Children {
		printTree(&n.Children[i], depth+1)
	}
}

func nodeLabel(n *fdt.Node) string {
	if n.Name == "" {
		return "/"
	}
	return n.Name
}

func formatValue(v fdt.Value) string {
	switch v.Kind {
	case fdt.KindEmpty:
		return "<empty>"
	case fdt.KindU32:
		u, _ := v.AsU32()
		return fmt.Sprintf("<0x%x>", u)
	case fdt.KindU64:
		u, _ := v.AsU64()
		return fmt.Sprintf("<0x%x>", u)
	case fdt.KindString:
		s, _ := v.AsString()
		return fmt.Sprintf("%q", s)
	case fdt.KindStringList:
		return fmt.Sprintf("%q", v.StringListEntries())
	case fdt.KindU32Array:
		elems, _ := v.U32Elements()
		return fmt.Sprintf("%v", elems)
	default:
		return fmt.Sprintf("[%d bytes]", len(v.Bytes()))
	}
}

type reservationEntry struct {
	Address uint64 `yaml:"address" json:"address"`
	Size    uint64 `yaml:"size" json:"size"`
}

func reservationReport(p *fdt.Parser) []reservationEntry {
	rs := p.Reservations()
	out := make([]reservationEntry, len(rs))
	for i, r := range rs {
		out[i] = reservationEntry{Address: r.Address, Size: r.Size}
	}
	return out
}
