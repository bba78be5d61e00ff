// Package core decodes the three FDT container blocks — the fixed
// header, the memory-reservation list, and the structure-block token
// stream — against a caller-owned byte buffer. It holds no tree model;
// that lives one layer up in the top-level fdt package.
package core

import (
	"github.com/scigolib/fdt/internal/utils"
)

// Magic is the fixed FDT container signature.
const Magic uint32 = 0xD00D_FEED

// HeaderSize is the fixed size in bytes of the FDT header block.
const HeaderSize = 40

// Header is the decoded 40-byte FDT header. Field order matches the
// on-wire layout of the Device Tree Specification v0.4: magic,
// totalsize, off_dt_struct, off_dt_strings, off_mem_rsvmap, version,
// last_comp_version, boot_cpuid_phys, size_dt_strings, size_dt_struct.
type Header struct {
	Magic           uint32
	TotalSize       uint32
	OffDTStruct     uint32
	OffDTStrings    uint32
	OffMemRsvmap    uint32
	Version         uint32
	LastCompVersion uint32
	BootCPUIDPhys   uint32
	SizeDTStrings   uint32
	SizeDTStruct    uint32
}

// ParseHeader decodes and validates the 40-byte FDT header at the start
// of buf.
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, utils.Wrap(utils.TruncatedBuffer, "header", nil)
	}

	fields := make([]uint32, 10)
	for i := range fields {
		v, err := utils.ReadU32(buf, i*4)
		if err != nil {
			return nil, utils.Wrap(utils.InvalidHeader, "header field", err)
		}
		fields[i] = v
	}

	h := &Header{
		Magic:           fields[0],
		TotalSize:       fields[1],
		OffDTStruct:     fields[2],
		OffDTStrings:    fields[3],
		OffMemRsvmap:    fields[4],
		Version:         fields[5],
		LastCompVersion: fields[6],
		BootCPUIDPhys:   fields[7],
		SizeDTStrings:   fields[8],
		SizeDTStruct:    fields[9],
	}

	if h.Magic != Magic {
		return nil, utils.Wrap(utils.InvalidMagic, "header", nil)
	}
	if uint64(h.TotalSize) > uint64(len(buf)) {
		return nil, utils.Wrap(utils.TruncatedBuffer, "totalsize exceeds buffer", nil)
	}
	if h.LastCompVersion > h.Version {
		return nil, utils.Wrap(utils.InvalidHeader, "last_comp_version > version", nil)
	}
	if h.OffDTStruct%4 != 0 {
		return nil, utils.Wrap(utils.InvalidHeader, "off_dt_struct not 4-byte aligned", nil)
	}
	if err := boundsCheck(h.TotalSize, h.OffDTStruct, h.SizeDTStruct, "struct block"); err != nil {
		return nil, err
	}
	if err := boundsCheck(h.TotalSize, h.OffDTStrings, h.SizeDTStrings, "strings block"); err != nil {
		return nil, err
	}
	if uint64(h.OffMemRsvmap) > uint64(h.TotalSize) {
		return nil, utils.Wrap(utils.InvalidHeader, "off_mem_rsvmap exceeds totalsize", nil)
	}

	return h, nil
}

func boundsCheck(total, off, size uint32, what string) error {
	end, err := utils.CheckedAdd(uint64(off), uint64(size))
	if err != nil {
		return utils.Wrap(utils.InvalidHeader, what+" offset+size overflow", err)
	}
	if end > uint64(total) {
		return utils.Wrap(utils.InvalidHeader, what+" exceeds totalsize", nil)
	}
	return nil
}
