package core

import "github.com/scigolib/fdt/internal/utils"

// Reservation is a single memory-reservation block entry.
type Reservation struct {
	Address uint64
	Size    uint64
}

// ReservationEntrySize is the on-wire size of one (address, size) pair.
const ReservationEntrySize = 16

// ParseReservations reads (address, size) pairs starting at offMemRsvmap
// until the (0, 0) sentinel.
func ParseReservations(buf []byte, offMemRsvmap uint32) ([]Reservation, error) {
	var out []Reservation
	off := int(offMemRsvmap)

	for {
		if off+ReservationEntrySize > len(buf) {
			return nil, utils.Wrap(utils.UnexpectedEOF, "reservation block: sentinel not reached", nil)
		}

		addr, err := utils.ReadU64(buf, off)
		if err != nil {
			return nil, utils.Wrap(utils.UnexpectedEOF, "reservation address", err)
		}
		size, err := utils.ReadU64(buf, off+8)
		if err != nil {
			return nil, utils.Wrap(utils.UnexpectedEOF, "reservation size", err)
		}
		off += ReservationEntrySize

		if addr == 0 && size == 0 {
			return out, nil
		}
		if size == 0 {
			return nil, utils.Wrap(utils.InvalidReservation, "zero-size non-sentinel entry", nil)
		}

		out = append(out, Reservation{Address: addr, Size: size})
	}
}
