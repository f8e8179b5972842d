// Package gfxhal drives small displays and LED matrices from a buffered,
// rotation aware frame buffer.
//
// Drawing happens on a FrameBuffer holding 24 bit RGB pixels. The area that
// changed since the last transfer is tracked as a single rectangle and sent
// to a Sink, the hardware facing side, packed in the sink's pixel format (see
// package pixfmt).
//
// # Sinks
//
// The sink packages under sink/ implement Sink for concrete hardware:
//
//	sink/st7789   ST7789 TFT over SPI (RGB444 or RGB565)
//	sink/ssd1322  SSD1322 grayscale OLED over SPI
//	sink/ws281x   WS2812 style LED strips and matrices over SPI
//	sink/crowpi2  CrowPi2 8x8 RGB LED matrix over I2C
//	sink/linuxfb  Linux framebuffer devices such as the Sense HAT
//	sink/console  terminal, live through tcell or as 24 bit ANSI text
//	sink/window   desktop window (cgo only)
//	sink/drawer   any periph.io display.Drawer, such as the SSD1306
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//
//		"github.com/flavioheleno/gfxhal"
//		"github.com/flavioheleno/gfxhal/sink/st7789"
//	)
//
//	func main() {
//		host.Init()
//		p, _ := spireg.Open("")
//		lcd, _ := st7789.NewSPI(p, gpioreg.ByName("GPIO25"), nil)
//
//		fb, _ := gfxhal.New(lcd, &gfxhal.Opts{
//			Rotation:      gfxhal.Rotate90,
//			TransferDelay: gfxhal.DefaultTransferDelay,
//		})
//		defer fb.Close()
//
//		fb.FillRect(10, 10, 100, 50, 0xFF0000)
//		fb.Flush()
//	}
//
// # Flush Policy
//
// Opts.TransferDelay selects when changes reach the sink:
//
//	0      every mutation transfers before returning
//	> 0    the first mutation schedules a transfer after the delay; later
//	       mutations only grow the dirty area until it runs
//	< 0    only Flush transfers (ManualFlush)
//
// Errors of scheduled transfers cannot be returned to a caller; they are
// reported to Opts.Observer and the area stays dirty for the next attempt.
//
// # Transfers
//
// A flush maps the dirty area to panel coordinates, widens it to the sink's
// x granularity and packs it row by row into a transfer buffer of at most
// Opts.MaxTransferSize bytes. Rows are never split across two
// Sink.SetPixels calls.
//
// # Compatibility
//
// FrameBuffer implements the display.Drawer interface from periph.io, and
// FrameBuffer.Displayer exposes it as a tinygo drivers.Displayer for use with
// tinyfont and tinydraw.
package gfxhal
