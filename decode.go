package amg8833

import (
	"encoding/binary"
	"math"
)

// hostLittleEndian reports the byte order words come out of readWord with.
// It is computed once at startup; samples are swapped per read only when it
// is false.
var hostLittleEndian = binary.NativeEndian.Uint16([]byte{0x34, 0x12}) == 0x1234

// decodePixel converts one raw pixel sample to degrees Celsius. The low 12
// bits are two's complement at 0.25°C per step. The sign test masks 11 bits
// while the negative branch reconstructs over 12, so samples in the range
// 0x800-0xFFF and samples with any of bits 12-15 set both decode through the
// negative branch, unmasked.
func decodePixel(raw uint16, swap bool) float64 {
	if swap {
		raw = raw<<8 | raw>>8
	}
	if raw&0x7FF == raw {
		return float64(raw) * PixelResolution
	}
	return (float64(raw) - 4096) * PixelResolution
}

// decodeThermistor converts the on-board thermistor sample to degrees
// Celsius. Unlike the pixels it is sign-magnitude: bit 11 carries the sign
// and the low 11 bits the magnitude, at 0.0625°C per step.
func decodeThermistor(raw uint16, swap bool) float64 {
	if swap {
		raw = raw<<8 | raw>>8
	}
	t := float64(raw&0x7FF) * ThermistorResolution
	if raw&0x800 != 0 {
		return -t
	}
	return t
}

// encodeLevel converts a Celsius threshold to the 12-bit two's complement
// form of the interrupt level registers, split into low byte and high
// nibble.
func encodeLevel(t float64) (lsb, msb uint8) {
	steps := uint16(int(math.Round(t/PixelResolution))) & 0xFFF
	return uint8(steps & 0xFF), uint8(steps >> 8)
}
