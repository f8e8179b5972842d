// Package pixfmt packs 24 bit RGB pixels into the wire formats used by small
// display controllers.
//
// A Format is described only by the number of bits of each channel, so RGB444,
// RGB565, RGB666, RGB888 and sub-byte formats all share the same code path.
// Packed values are written most significant bit first and may straddle byte
// boundaries:
//
//	Pixels:  0xAABBCC    0x112233
//	RGB444:  0xABC       0x123
//	Bytes:   0xAB 0xC1 0x23
//
// Conversion from RGB truncates each channel. Callers that prefer nearest
// value rounding apply Format.Round first:
//
//	v := pixfmt.RGB565.FromRGB(pixfmt.RGB565.Round(0x7b7b7b))
//
// This package provides:
//
// - Format: channel widths plus the packing routines (FromRGB, WriteRGB,
// WriteRGBRun, WriteRGBStride, FillRGB and their unpacking counterparts)
//
// - WriteBits / ReadBits: MSB-first bit field access on a byte slice
//
// - Image: a draw.Image backed by packed rows, used by sinks as panel memory
//
// Out of range bit offsets and formats wider than 24 bits are programming
// errors and panic.
package pixfmt
