package pixfmt

import (
	"fmt"
	"image/color"
)

// MaxBits is the widest packed pixel supported by the codec.
const MaxBits = 24

// Format describes a packed RGB pixel by the number of bits of each channel.
// Channels are stored red first, most significant bit first.
type Format struct {
	R, G, B uint8
}

// Common formats.
var (
	RGB444 = Format{R: 4, G: 4, B: 4} // 12 bpp
	RGB565 = Format{R: 5, G: 6, B: 5} // 16 bpp
	RGB666 = Format{R: 6, G: 6, B: 6} // 18 bpp
	RGB888 = Format{R: 8, G: 8, B: 8} // 24 bpp
	Gray4  = Format{G: 4}             // 4 bpp gray, driven by the green channel
	Mono   = Format{G: 1}             // 1 bpp, lit when the green MSB is set
)

// New returns the format with the given channel widths.
//
// It panics if the total exceeds MaxBits.
func New(r, g, b uint8) Format {
	f := Format{R: r, G: g, B: b}
	if f.BitCount() > MaxBits || r > 8 || g > 8 || b > 8 {
		panic(fmt.Sprintf("pixfmt: unsupported format %v", f))
	}
	return f
}

// BitCount returns the number of bits of one packed pixel.
func (f Format) BitCount() int {
	return int(f.R) + int(f.G) + int(f.B)
}

// ByteLen returns the number of bytes needed to hold n packed pixels.
func (f Format) ByteLen(n int) int {
	return (n*f.BitCount() + 7) / 8
}

// Granularity returns the smallest power of two g for which g pixels fill a
// whole number of bytes.
func (f Format) Granularity() int {
	bits := f.BitCount()
	if bits == 0 {
		return 1
	}
	g := 1
	for (g*bits)%8 != 0 {
		g *= 2
	}
	return g
}

func (f Format) String() string {
	return fmt.Sprintf("RGB%d%d%d", f.R, f.G, f.B)
}

// FromRGB converts a 24 bit 0xRRGGBB value to the packed representation by
// keeping the top bits of each channel. No rounding is applied; see Round.
func (f Format) FromRGB(rgb uint32) uint32 {
	r := (rgb >> (24 - f.R)) & (1<<f.R - 1)
	g := (rgb >> (16 - f.G)) & (1<<f.G - 1)
	b := (rgb >> (8 - f.B)) & (1<<f.B - 1)
	return r<<(f.G+f.B) | g<<f.B | b
}

// ToRGB expands a packed value back to 0xRRGGBB, replicating the high bits
// into the low ones so that full scale maps to 0xFF. Formats with only a
// green channel are gray levels and expand to equal channels.
func (f Format) ToRGB(v uint32) uint32 {
	if f.R == 0 && f.B == 0 {
		return expand(v&(1<<f.G-1), f.G) * 0x010101
	}
	b := expand(v&(1<<f.B-1), f.B)
	g := expand((v>>f.B)&(1<<f.G-1), f.G)
	r := expand((v>>(f.G+f.B))&(1<<f.R-1), f.R)
	return r<<16 | g<<8 | b
}

func expand(v uint32, bits uint8) uint32 {
	if bits == 0 {
		return 0
	}
	out := uint32(0)
	for shift := int(8 - bits); shift > -int(bits); shift -= int(bits) {
		if shift >= 0 {
			out |= v << shift
		} else {
			out |= v >> -shift
		}
	}
	return out & 0xFF
}

// Round adds half of the least significant packed bit to every channel,
// saturating at 0xFF, so that a following FromRGB rounds to the nearest value
// instead of truncating.
func (f Format) Round(rgb uint32) uint32 {
	return roundChannel(rgb>>16, f.R)<<16 | roundChannel(rgb>>8, f.G)<<8 | roundChannel(rgb, f.B)
}

func roundChannel(c uint32, bits uint8) uint32 {
	c &= 0xFF
	if bits == 0 || bits >= 8 {
		return c
	}
	c += 1 << (7 - bits)
	if c > 0xFF {
		c = 0xFF
	}
	return c
}

// WriteBits writes the low count bits of value into buf starting at bitOffset,
// most significant bit first. Bits outside the written range are preserved.
//
// It panics if count exceeds MaxBits or the range does not fit in buf.
func WriteBits(value uint32, count int, buf []byte, bitOffset int) {
	if count < 0 || count > MaxBits {
		panic(fmt.Sprintf("pixfmt: bit count %d out of range", count))
	}
	if bitOffset < 0 || bitOffset+count > len(buf)*8 {
		panic(fmt.Sprintf("pixfmt: bit range [%d,%d) outside buffer of %d bytes", bitOffset, bitOffset+count, len(buf)))
	}
	if count == 0 {
		return
	}
	i := bitOffset >> 3
	shift := 32 - count - (bitOffset & 7)
	mask := (uint32(1)<<count - 1) << shift
	v := (value << shift) & mask
	for mask != 0 {
		buf[i] = buf[i]&^byte(mask>>24) | byte(v>>24)
		i++
		mask <<= 8
		v <<= 8
	}
}

// ReadBits returns count bits of buf starting at bitOffset, most significant
// bit first. It panics on the same conditions as WriteBits.
func ReadBits(buf []byte, bitOffset, count int) uint32 {
	if count < 0 || count > MaxBits {
		panic(fmt.Sprintf("pixfmt: bit count %d out of range", count))
	}
	if bitOffset < 0 || bitOffset+count > len(buf)*8 {
		panic(fmt.Sprintf("pixfmt: bit range [%d,%d) outside buffer of %d bytes", bitOffset, bitOffset+count, len(buf)))
	}
	if count == 0 {
		return 0
	}
	i := bitOffset >> 3
	lead := bitOffset & 7
	n := (lead + count + 7) / 8
	var acc uint64
	for k := 0; k < n; k++ {
		acc = acc<<8 | uint64(buf[i+k])
	}
	acc >>= uint(n*8 - lead - count)
	return uint32(acc) & (1<<count - 1)
}

// WriteRGB packs one 0xRRGGBB value at bitOffset and returns the number of
// bits written.
func (f Format) WriteRGB(rgb uint32, buf []byte, bitOffset int) int {
	bits := f.BitCount()
	WriteBits(f.FromRGB(rgb), bits, buf, bitOffset)
	return bits
}

// ReadRGB unpacks the pixel stored at bitOffset.
func (f Format) ReadRGB(buf []byte, bitOffset int) uint32 {
	return f.ToRGB(ReadBits(buf, bitOffset, f.BitCount()))
}

// WriteRGBRun packs count consecutive pixels of src starting at srcOffset and
// returns the number of bits written.
func (f Format) WriteRGBRun(src []uint32, srcOffset int, dst []byte, dstBitOffset, count int) int {
	return f.WriteRGBStride(src, srcOffset, 1, dst, dstBitOffset, count)
}

// WriteRGBStride packs count pixels of src, starting at srcOffset and
// advancing by srcStride (which may be negative) between pixels.
func (f Format) WriteRGBStride(src []uint32, srcOffset, srcStride int, dst []byte, dstBitOffset, count int) int {
	bits := f.BitCount()
	if count <= 0 {
		return 0
	}
	if dstBitOffset&7 == 0 && bits&7 == 0 {
		i := dstBitOffset >> 3
		if i+count*bits/8 > len(dst) {
			panic(fmt.Sprintf("pixfmt: %d pixels at byte %d overflow buffer of %d bytes", count, i, len(dst)))
		}
		switch bits {
		case 8:
			for k := 0; k < count; k++ {
				dst[i] = byte(f.FromRGB(src[srcOffset]))
				i++
				srcOffset += srcStride
			}
			return count * bits
		case 16:
			for k := 0; k < count; k++ {
				v := f.FromRGB(src[srcOffset])
				dst[i] = byte(v >> 8)
				dst[i+1] = byte(v)
				i += 2
				srcOffset += srcStride
			}
			return count * bits
		case 24:
			for k := 0; k < count; k++ {
				v := f.FromRGB(src[srcOffset])
				dst[i] = byte(v >> 16)
				dst[i+1] = byte(v >> 8)
				dst[i+2] = byte(v)
				i += 3
				srcOffset += srcStride
			}
			return count * bits
		}
	}
	off := dstBitOffset
	for k := 0; k < count; k++ {
		WriteBits(f.FromRGB(src[srcOffset]), bits, dst, off)
		off += bits
		srcOffset += srcStride
	}
	return off - dstBitOffset
}

// FillRGB packs the same color count times starting at dstBitOffset and
// returns the number of bits written. The output is identical to calling
// WriteRGB count times.
func (f Format) FillRGB(dst []byte, dstBitOffset, count int, rgb uint32) int {
	bits := f.BitCount()
	if count <= 0 {
		return 0
	}
	v := f.FromRGB(rgb)
	if dstBitOffset&7 == 0 && bits&7 == 0 && bits > 0 {
		start := dstBitOffset >> 3
		end := start + count*bits/8
		if end > len(dst) {
			panic(fmt.Sprintf("pixfmt: %d pixels at byte %d overflow buffer of %d bytes", count, start, len(dst)))
		}
		WriteBits(v, bits, dst, dstBitOffset)
		// Double the written prefix until the run is complete.
		for n := bits / 8; start+n < end; n *= 2 {
			copy(dst[start+n:end], dst[start:start+n])
		}
		return count * bits
	}
	off := dstBitOffset
	for k := 0; k < count; k++ {
		WriteBits(v, bits, dst, off)
		off += bits
	}
	return off - dstBitOffset
}

// FromColor converts any color to a 0xRRGGBB value, ignoring alpha.
func FromColor(c color.Color) uint32 {
	if rgba, ok := c.(color.RGBA); ok {
		return uint32(rgba.R)<<16 | uint32(rgba.G)<<8 | uint32(rgba.B)
	}
	r, g, b, _ := c.RGBA()
	return (r>>8)<<16 | (g>>8)<<8 | b>>8
}

// ToColor converts a 0xRRGGBB value to an opaque color.RGBA.
func ToColor(rgb uint32) color.RGBA {
	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xFF}
}

// Model returns a color model that quantizes colors to what f can represent.
func (f Format) Model() color.Model {
	return color.ModelFunc(func(c color.Color) color.Color {
		return ToColor(f.ToRGB(f.FromRGB(FromColor(c))))
	})
}
