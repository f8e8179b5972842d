//go:build linux

package linuxfb

import (
	"os"
	"unsafe"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// <linux/fb.h> ioctls
const (
	fbiogetVScreenInfo = 0x4600
	fbiogetFScreenInfo = 0x4602
)

// <linux/fb.h> struct fb_bitfield
type bitField struct {
	Offset   uint32
	Length   uint32
	MsbRight uint32
}

// <linux/fb.h> struct fb_var_screeninfo
type varScreenInfo struct {
	XRes, YRes               uint32
	XResVirtual, YResVirtual uint32
	XOffset, YOffset         uint32
	BitsPerPixel             uint32
	Grayscale                uint32
	Red, Green, Blue, Alpha  bitField
	NonStd                   uint32
	Activate                 uint32
	Height, Width            uint32
	AccelFlags               uint32
	PixClock                 uint32
	LeftMargin, RightMargin  uint32
	UpperMargin, LowerMargin uint32
	HSyncLen, VSyncLen       uint32
	Sync                     uint32
	VMode                    uint32
	Rotate                   uint32
	ColorSpace               uint32
	Reserved                 [4]uint32
}

// <linux/fb.h> struct fb_fix_screeninfo
type fixScreenInfo struct {
	ID           [16]byte
	SMemStart    uintptr
	SMemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

// Open opens the framebuffer device at path, reading its size and pixel
// layout from the kernel.
func Open(path string) (*Dev, error) {
	f, err := os.OpenFile(path, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, errors.Annotate(err, "open")
	}
	var vinfo varScreenInfo
	if err := ioctl(f.Fd(), fbiogetVScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		f.Close()
		return nil, errors.Annotate(err, "get variable screen info")
	}
	var finfo fixScreenInfo
	if err := ioctl(f.Fd(), fbiogetFScreenInfo, unsafe.Pointer(&finfo)); err != nil {
		f.Close()
		return nil, errors.Annotate(err, "get fixed screen info")
	}
	d, err := NewFile(f, int(vinfo.XRes), int(vinfo.YRes), Layout{
		BitsPerPixel: vinfo.BitsPerPixel,
		Red:          Field{Offset: vinfo.Red.Offset, Length: vinfo.Red.Length},
		Green:        Field{Offset: vinfo.Green.Offset, Length: vinfo.Green.Length},
		Blue:         Field{Offset: vinfo.Blue.Offset, Length: vinfo.Blue.Length},
		LineLength:   finfo.LineLength,
	})
	if err != nil {
		f.Close()
		return nil, errors.Annotate(err, path)
	}
	return d, nil
}

func ioctl(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg)); errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}
