package cache

import (
	"encoding/binary"
	"fmt"

	"github.com/solarb/engine/internal/curve"
)

// decodeTickArray decodes a concentrated-liquidity tick-array satellite:
// a 4-byte start index, a 2-byte tick spacing, a 2-byte tick count, then
// that many (4-byte index, 8-byte signed liquidity_net) pairs.
func decodeTickArray(data []byte) (curve.TickArraySnapshot, error) {
	if len(data) < 8 {
		return curve.TickArraySnapshot{}, fmt.Errorf("cache: tick array account too short")
	}
	start := int32(binary.LittleEndian.Uint32(data[0:4]))
	spacing := binary.LittleEndian.Uint16(data[4:6])
	count := int(binary.LittleEndian.Uint16(data[6:8]))
	off := 8
	if len(data) < off+count*12 {
		return curve.TickArraySnapshot{}, fmt.Errorf("cache: tick array entries truncated")
	}
	ticks := make([]curve.TickSnapshot, count)
	for i := 0; i < count; i++ {
		idx := int32(binary.LittleEndian.Uint32(data[off : off+4]))
		net := int64(binary.LittleEndian.Uint64(data[off+4 : off+12]))
		ticks[i] = curve.TickSnapshot{Index: idx, LiquidityNet: net}
		off += 12
	}
	return curve.TickArraySnapshot{StartTickIndex: start, TickSpacing: spacing, Ticks: ticks}, nil
}

// decodeBinArray decodes a discretized-bin satellite: a 4-byte start bin
// index, a 2-byte bin count, then that many (4-byte index, 8-byte reserve_a,
// 8-byte reserve_b) entries.
func decodeBinArray(data []byte) (curve.BinArraySnapshot, error) {
	if len(data) < 6 {
		return curve.BinArraySnapshot{}, fmt.Errorf("cache: bin array account too short")
	}
	start := int32(binary.LittleEndian.Uint32(data[0:4]))
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	off := 6
	if len(data) < off+count*20 {
		return curve.BinArraySnapshot{}, fmt.Errorf("cache: bin array entries truncated")
	}
	bins := make([]curve.BinSnapshot, count)
	for i := 0; i < count; i++ {
		idx := int32(binary.LittleEndian.Uint32(data[off : off+4]))
		ra := binary.LittleEndian.Uint64(data[off+4 : off+12])
		rb := binary.LittleEndian.Uint64(data[off+12 : off+20])
		bins[i] = curve.BinSnapshot{Index: idx, ReserveA: ra, ReserveB: rb}
		off += 20
	}
	return curve.BinArraySnapshot{StartBinIndex: start, Bins: bins}, nil
}
