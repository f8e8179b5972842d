// Package cdevpin provides a periph.io gpio.PinOut backed by the Linux GPIO
// character device, for boards where the periph host drivers have no
// memory mapped GPIO support.
//
// Use it as the data/command or reset pin of a display sink:
//
//	dc, err := cdevpin.Request("gpiochip0", 25)
//	...
//	dev, err := st7789.NewSPI(port, dc, nil)
package cdevpin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Consumer is the label the requested lines are tagged with.
const Consumer = "gfxhal"

// line is the part of *gpiocdev.Line a Pin drives.
type line interface {
	SetValue(int) error
	Close() error
}

// Pin is an output line requested from a GPIO chip.
type Pin struct {
	mu    sync.Mutex
	name  string
	num   int
	l     line
	level gpio.Level
}

var _ gpio.PinOut = (*Pin)(nil)

// Request requests offset on chip (for example "gpiochip0") as an output,
// initially low.
func Request(chip string, offset int) (*Pin, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("cdevpin: request %s:%d: %w", chip, offset, err)
	}
	return newPin(fmt.Sprintf("%s:%d", chip, offset), offset, l), nil
}

func newPin(name string, num int, l line) *Pin {
	return &Pin{name: name, num: num, l: l}
}

// String implements conn.Resource.
func (p *Pin) String() string {
	return p.name
}

// Halt implements conn.Resource. The line keeps its level.
func (p *Pin) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.name
}

// Number implements pin.Pin. It is the line offset on its chip.
func (p *Pin) Number() int {
	return p.num
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	return "Out/" + p.Read().String()
}

// Read returns the last level written.
func (p *Pin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.l == nil {
		return fmt.Errorf("cdevpin: %s is closed", p.name)
	}
	v := 0
	if l {
		v = 1
	}
	if err := p.l.SetValue(v); err != nil {
		return fmt.Errorf("cdevpin: %s: %w", p.name, err)
	}
	p.level = l
	return nil
}

// PWM implements gpio.PinOut. Character device lines only support digital
// output, so only 0% and 100% duty cycles are accepted.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	switch duty {
	case 0:
		return p.Out(gpio.Low)
	case gpio.DutyMax:
		return p.Out(gpio.High)
	}
	return errors.New("cdevpin: PWM is not supported")
}

// Close releases the line.
func (p *Pin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.l == nil {
		return nil
	}
	err := p.l.Close()
	p.l = nil
	return err
}
