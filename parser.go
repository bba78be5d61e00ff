package fdt

import (
	"github.com/scigolib/fdt/internal/core"
)

// Parser holds a decoded FDT container: the header, the memory
// reservation list, and the assembled node tree. It borrows from buf
// for the lifetime of every Node/Value reached through it — buf must
// outlive the Parser. Open validates the container, decodes the root
// structure, and exposes discovery helpers against a single in-memory
// buffer, since the FDT core works entirely against an already-resident
// blob rather than performing its own I/O.
type Parser struct {
	buf          []byte
	header       *core.Header
	reservations []core.Reservation
	root         *Node
}

// Open validates buf as an FDT container and builds its node tree.
// Container faults (bad magic, truncated/misaligned header, an
// unbalanced token stream, reservations missing their sentinel) are
// always fatal: Open returns no partial Parser.
func Open(buf []byte) (*Parser, error) {
	h, err := core.ParseHeader(buf)
	if err != nil {
		return nil, err
	}

	reservations, err := core.ParseReservations(buf, h.OffMemRsvmap)
	if err != nil {
		return nil, err
	}

	structure := buf[h.OffDTStruct : h.OffDTStruct+h.SizeDTStruct]
	strings := buf[h.OffDTStrings : h.OffDTStrings+h.SizeDTStrings]
	root, err := buildTree(structure, strings)
	if err != nil {
		return nil, err
	}

	return &Parser{buf: buf, header: h, reservations: reservations, root: root}, nil
}

// Root returns the tree's root node.
func (p *Parser) Root() *Node { return p.root }

// Reservations returns the decoded memory-reservation list.
func (p *Parser) Reservations() []core.Reservation { return p.reservations }

// Version returns the FDT format version the blob declares.
func (p *Parser) Version() uint32 { return p.header.Version }

// BootCPUIDPhys returns the physical CPU ID the boot CPU should use,
// per the header's boot_cpuid_phys field.
func (p *Parser) BootCPUIDPhys() uint32 { return p.header.BootCPUIDPhys }

// TimebaseFrequency returns the `timebase-frequency` property of the
// root's `cpus` child in Hz, and false if that node or property is
// absent or not a u32.
func (p *Parser) TimebaseFrequency() (uint32, bool) {
	cpus, ok := p.root.FindChild("cpus")
	if !ok {
		return 0, false
	}
	v, ok := cpus.FindProperty("timebase-frequency")
	if !ok {
		return 0, false
	}
	hz, err := v.AsU32()
	if err != nil {
		return 0, false
	}
	return hz, true
}

// DiscoverMMIORegions walks the whole tree collecting every node's
// `reg` entries, bounded by maxDepth levels of `ranges` translation.
// maxDepth of 0 means no translation is attempted at all: every region
// is returned with TranslatedAddress equal to ChildAddress.
func (p *Parser) DiscoverMMIORegions(maxDepth int) ([]MMIORegion, error) {
	if maxDepth <= 0 {
		var out []MMIORegion
		if err := walkWithCells(p.root, defaultAddressCells, defaultSizeCells, func(n *Node, ac, sc uint32) error {
			regs, err := decodeReg(n, ac, sc)
			if err != nil {
				return err
			}
			for _, r := range regs {
				out = append(out, MMIORegion{Node: n, ChildAddress: r.Address, TranslatedAddress: r.Address, Size: r.Size})
			}
			return nil
		}); err != nil {
			return nil, err
		}
		return out, nil
	}
	return mmioRegions(p.root, maxDepth)
}

// MemoryRegion is a single RAM region discovered via MemoryRegions.
type MemoryRegion struct {
	Node    *Node
	Address uint64
	Size    uint64
}

// MemoryRegions returns every node's `reg` list where
// `device_type == "memory"`, decoded using the node's parent's cells.
// Memory nodes sit directly under a bus with no `ranges` indirection by
// FDT convention, so these addresses are reported as decoded, not
// translated.
func (p *Parser) MemoryRegions() ([]MemoryRegion, error) {
	var out []MemoryRegion
	if err := walkWithCells(p.root, defaultAddressCells, defaultSizeCells, func(n *Node, ac, sc uint32) error {
		dt, ok := n.FindProperty("device_type")
		if !ok {
			return nil
		}
		s, err := dt.AsString()
		if err != nil || s != "memory" {
			return nil
		}
		regs, err := decodeReg(n, ac, sc)
		if err != nil {
			return err
		}
		for _, r := range regs {
			out = append(out, MemoryRegion{Node: n, Address: r.Address, Size: r.Size})
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}
