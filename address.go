package fdt

import (
	"github.com/scigolib/fdt/internal/utils"
)

// Default #address-cells/#size-cells when a node (or the root) declares
// neither.
const (
	defaultAddressCells uint32 = 2
	defaultSizeCells    uint32 = 1
)

// maxCellWords bounds how many 4-byte cells this implementation will
// assemble into a single uint64 address or size. Cell counts above 4
// are already invalid per cellsOf; this only guards against the high
// words of a legally-sized (3 or 4 cell) value being nonzero, which
// would not fit in 64 bits.
const maxCellWords = 2

// cellsOf reads a `#address-cells`/`#size-cells`-shaped property from n,
// falling back to deflt when absent, and validates the legal 1-4 range.
func cellsOf(n *Node, propName string, deflt uint32, kind utils.Kind) (uint32, error) {
	v, ok := n.FindProperty(propName)
	if !ok {
		return deflt, nil
	}
	c, err := v.AsU32()
	if err != nil {
		return 0, utils.Wrap(kind, propName+" is not a u32", err)
	}
	if c < 1 || c > 4 {
		return 0, utils.Wrap(kind, propName+" out of range 1-4", nil)
	}
	return c, nil
}

// readCells assembles ncells big-endian 4-byte cells starting at offset
// into a single uint64, most-significant cell first. Any cell beyond
// the low 64 bits of value must be zero, since an address or size that
// wide cannot be represented here.
func readCells(raw []byte, offset int, ncells uint32) (uint64, int, error) {
	var val uint64
	for i := uint32(0); i < ncells; i++ {
		cell, err := utils.ReadU32(raw, offset)
		if err != nil {
			return 0, 0, err
		}
		offset += 4
		if ncells-i > maxCellWords && cell != 0 {
			return 0, 0, utils.Wrap(utils.AddressOverflow, "cell value exceeds 64 bits", nil)
		}
		if ncells-i <= maxCellWords {
			val = val<<32 | uint64(cell)
		}
	}
	return val, offset, nil
}

// RegEntry is a single decoded (address, size) pair from a `reg`
// property.
type RegEntry struct {
	Address uint64
	Size    uint64
}

// decodeReg decodes n's `reg` property using ac address cells and sc
// size cells, as declared (or defaulted) by n's parent. Returns nil,
// nil when n has no `reg` property at all.
func decodeReg(n *Node, ac, sc uint32) ([]RegEntry, error) {
	v, ok := n.FindProperty("reg")
	if !ok {
		return nil, nil
	}
	raw := v.Bytes()
	entrySize := int(4 * (ac + sc))
	if entrySize == 0 || len(raw)%entrySize != 0 {
		return nil, utils.Wrap(utils.InvalidRegFormat, "reg length not a multiple of 4*(address-cells+size-cells)", nil)
	}
	count := len(raw) / entrySize
	out := make([]RegEntry, count)
	offset := 0
	for i := 0; i < count; i++ {
		addr, next, err := readCells(raw, offset, ac)
		if err != nil {
			return nil, err
		}
		offset = next
		var size uint64
		if sc > 0 {
			size, offset, err = readCells(raw, offset, sc)
			if err != nil {
				return nil, err
			}
		}
		out[i] = RegEntry{Address: addr, Size: size}
	}
	return out, nil
}

// RegAddresses is the public accessor for decodeReg, using ac and sc as
// declared by the node's parent.
func (n *Node) RegAddresses(addressCells, sizeCells uint32) ([]RegEntry, error) {
	return decodeReg(n, addressCells, sizeCells)
}

// rangeEntry is a single decoded (child-address, parent-address, size)
// triple from a `ranges` property.
type rangeEntry struct {
	ChildAddress  uint64
	ParentAddress uint64
	Size          uint64
}

// decodeRanges decodes n's `ranges` property. ac and sc are n's own
// address-cells/size-cells (describing n's child address space); pac
// is n's parent's address-cells (describing the parent-side address
// within each triple).
func decodeRanges(raw []byte, ac, pac, sc uint32) ([]rangeEntry, error) {
	entrySize := int(4 * (ac + pac + sc))
	if entrySize == 0 || len(raw)%entrySize != 0 {
		return nil, utils.Wrap(utils.InvalidRangesFormat, "ranges length not a multiple of 4*(ac+pac+sc)", nil)
	}
	count := len(raw) / entrySize
	out := make([]rangeEntry, count)
	offset := 0
	for i := 0; i < count; i++ {
		var err error
		var child, parent, size uint64
		child, offset, err = readCells(raw, offset, ac)
		if err != nil {
			return nil, err
		}
		parent, offset, err = readCells(raw, offset, pac)
		if err != nil {
			return nil, err
		}
		size, offset, err = readCells(raw, offset, sc)
		if err != nil {
			return nil, err
		}
		out[i] = rangeEntry{ChildAddress: child, ParentAddress: parent, Size: size}
	}
	return out, nil
}

// translateOneLevel applies a single bus level's `ranges` mapping to
// addr, which is expressed in node's own child address space. size is
// the extent of the access being translated (0 for a bare point
// address); an entry only matches if the whole [addr, addr+size) span
// fits within it, not merely addr itself — an address near the end of
// a range still fails translation if the access would run past it. It
// implements four documented behaviors, per the Device Tree
// Specification v0.4's address translation algorithm:
//
//   - no `ranges` property at all: translation stops here, addr is
//     already final (cont=false).
//   - `ranges` present but empty: identity mapping, addr is unchanged
//     but translation continues up through the parent (cont=true).
//   - `ranges` present and non-empty: the matching entry's offset is
//     applied and translation continues upward.
//   - no entry matches a non-empty `ranges`: AddressTranslationError.
func translateOneLevel(node *Node, ac, sc, pac uint32, addr, size uint64) (newAddr uint64, cont bool, err error) {
	v, ok := node.FindProperty("ranges")
	if !ok {
		return addr, false, nil
	}
	raw := v.Bytes()
	if len(raw) == 0 {
		return addr, true, nil
	}
	entries, err := decodeRanges(raw, ac, pac, sc)
	if err != nil {
		return 0, false, err
	}
	for _, e := range entries {
		if addr < e.ChildAddress {
			continue
		}
		offset := addr - e.ChildAddress
		if e.Size == 0 {
			// A zero-size entry covers no span at all, so it only
			// matches a bare point address sitting exactly at its start.
			if offset != 0 || size != 0 {
				continue
			}
		} else {
			if offset >= e.Size {
				continue
			}
			end, err := utils.CheckedAdd(offset, size)
			if err != nil {
				return 0, false, err
			}
			if end > e.Size {
				continue
			}
		}
		translated, err := utils.CheckedAdd(e.ParentAddress, offset)
		if err != nil {
			return 0, false, err
		}
		return translated, true, nil
	}
	return 0, false, utils.Wrap(utils.AddressTranslationError, "no ranges entry covers the address", nil)
}

// cellNode is one link in an ancestor chain used by translateAddressRecursive:
// node's own address-cells/size-cells, i.e. the cells that describe
// addresses and sizes within node's child bus.
type cellNode struct {
	node *Node
	ac   uint32
	sc   uint32
}

// translateAddressRecursive walks chain (immediate parent first, root
// last) applying translateOneLevel at each level, starting from addr
// in the leaf's immediate parent's address space. It stops as soon as
// a level has no `ranges` property, or when chain is exhausted.
//
// Cycle detection guards against a chain built from a corrupted tree
// where the same node appears twice; it cannot trigger on a chain
// built by a genuine pre-order tree walk, which is acyclic by
// construction, but the check is kept as a structural invariant rather
// than trusted-input assumption.
func translateAddressRecursive(chain []cellNode, addr, size uint64, maxDepth int) (uint64, error) {
	visited := make(map[*Node]bool, len(chain))
	for i, link := range chain {
		if maxDepth <= 0 {
			return 0, utils.Wrap(utils.MaxTranslationDepthExceeded, "translation exceeded max depth", nil)
		}
		maxDepth--

		if visited[link.node] {
			return 0, utils.Wrap(utils.TranslationCycle, "ancestor chain revisits a node", nil)
		}
		visited[link.node] = true

		pac := defaultAddressCells
		if i+1 < len(chain) {
			pac = chain[i+1].ac
		}

		newAddr, cont, err := translateOneLevel(link.node, link.ac, link.sc, pac, addr, size)
		if err != nil {
			return 0, err
		}
		addr = newAddr
		if !cont {
			return addr, nil
		}
	}
	return addr, nil
}

// ancestorChainTo locates target within the subtree rooted at root and
// returns the ancestor chain translateAddressRecursive expects
// (target's immediate parent first, root last), along with each
// ancestor's own address-cells/size-cells. rootAC/rootSC are root's own
// cells. Returns ok=false if target is not in this subtree; returns an
// empty, ok=true chain if target is root itself.
func ancestorChainTo(root, target *Node, rootAC, rootSC uint32) ([]cellNode, bool, error) {
	if root == target {
		return nil, true, nil
	}
	for i := range root.Children {
		child := &root.Children[i]
		if child == target {
			return []cellNode{{node: root, ac: rootAC, sc: rootSC}}, true, nil
		}
		// child's own cells are declared on child itself, not on root;
		// root's value only supplies the fallback default when child
		// redeclares nothing (mirrors mmioRegions' walk).
		childAC, err := cellsOf(child, "#address-cells", rootAC, utils.InvalidAddressCells)
		if err != nil {
			return nil, false, err
		}
		childSC, err := cellsOf(child, "#size-cells", rootSC, utils.InvalidSizeCells)
		if err != nil {
			return nil, false, err
		}
		if sub, ok, err := ancestorChainTo(child, target, childAC, childSC); err != nil {
			return nil, false, err
		} else if ok {
			// root is shallower than everything already in sub, so it
			// belongs at the end: immediate parent first, root last.
			return append(sub, cellNode{node: root, ac: rootAC, sc: rootSC}), true, nil
		}
	}
	return nil, false, nil
}

// TranslateAddress translates addr (and the size-byte span starting at
// it) from node's own address space up through every bus level between
// node and the tree's root. It is the general-purpose counterpart to
// DiscoverMMIORegions, usable on an address that doesn't necessarily
// come from node's own `reg` property.
func (p *Parser) TranslateAddress(node *Node, addr, size uint64, maxDepth int) (uint64, error) {
	rootAC, err := cellsOf(p.root, "#address-cells", defaultAddressCells, utils.InvalidAddressCells)
	if err != nil {
		return 0, err
	}
	rootSC, err := cellsOf(p.root, "#size-cells", defaultSizeCells, utils.InvalidSizeCells)
	if err != nil {
		return 0, err
	}
	chain, ok, err := ancestorChainTo(p.root, node, rootAC, rootSC)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, utils.Wrap(utils.AddressTranslationError, "node is not part of this parser's tree", nil)
	}
	return translateAddressRecursive(chain, addr, size, maxDepth)
}

// MMIORegion is a single `reg` entry discovered during an MMIO sweep,
// reported both in its original child-bus address space and, when
// translation succeeds, in CPU-visible physical address space.
type MMIORegion struct {
	Node              *Node
	ChildAddress      uint64
	TranslatedAddress uint64
	Size              uint64
}

// walkWithCells performs a pre-order walk of root, invoking fn at every
// node with the address-cells/size-cells that node's OWN reg/ranges
// properties should be decoded with, i.e. the cells declared (or
// defaulted) by that node's parent.
func walkWithCells(root *Node, inheritedAC, inheritedSC uint32, fn func(n *Node, ac, sc uint32) error) error {
	if err := fn(root, inheritedAC, inheritedSC); err != nil {
		return err
	}
	childAC, err := cellsOf(root, "#address-cells", inheritedAC, utils.InvalidAddressCells)
	if err != nil {
		return err
	}
	childSC, err := cellsOf(root, "#size-cells", inheritedSC, utils.InvalidSizeCells)
	if err != nil {
		return err
	}
	for i := range root.Children {
		if err := walkWithCells(&root.Children[i], childAC, childSC, fn); err != nil {
			return err
		}
	}
	return nil
}

// mmioRegions walks the whole tree rooted at root, decoding every
// node's `reg` property and translating each entry up through the bus
// hierarchy via translateAddressRecursive, bounded by maxDepth. Nodes
// with no `reg` property contribute nothing.
func mmioRegions(root *Node, maxDepth int) ([]MMIORegion, error) {
	var out []MMIORegion
	var walk func(n *Node, chain []cellNode, inheritedAC, inheritedSC uint32) error
	walk = func(n *Node, chain []cellNode, inheritedAC, inheritedSC uint32) error {
		regs, err := decodeReg(n, inheritedAC, inheritedSC)
		if err != nil {
			return err
		}
		for _, r := range regs {
			translated, err := translateAddressRecursive(chain, r.Address, r.Size, maxDepth)
			if err != nil {
				return err
			}
			out = append(out, MMIORegion{Node: n, ChildAddress: r.Address, TranslatedAddress: translated, Size: r.Size})
		}

		childAC, err := cellsOf(n, "#address-cells", inheritedAC, utils.InvalidAddressCells)
		if err != nil {
			return err
		}
		childSC, err := cellsOf(n, "#size-cells", inheritedSC, utils.InvalidSizeCells)
		if err != nil {
			return err
		}
		childChain := append([]cellNode{{node: n, ac: childAC, sc: childSC}}, chain...)
		for i := range n.Children {
			if err := walk(&n.Children[i], childChain, childAC, childSC); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, nil, defaultAddressCells, defaultSizeCells); err != nil {
		return nil, err
	}
	return out, nil
}
