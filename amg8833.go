// Package amg8833 reads the Panasonic AMG8833 Grid-EYE 8x8 thermal array
// sensor over I2C.
package amg8833

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// The part needs settle time around power mode changes and resets before
// register contents are reliable.
const settleTime = 100 * time.Millisecond

type AMG8833 struct {
	dev       *i2c.Dev
	closer    i2c.BusCloser
	Addr      uint16
	swapBytes bool

	busMutex sync.Mutex
}

type InterruptConfig struct {
	Enabled    bool
	Absolute   bool
	High       float64
	Low        float64
	Hysteresis float64
}

var DefaultInterruptConfig = InterruptConfig{Enabled: false, Absolute: true, High: 30.0, Low: 10.0, Hysteresis: 0.0}

// New wraps an already-open bus without touching the device. Call
// Initialize before reading frames. A zero addr selects DefaultAddress.
func New(bus i2c.Bus, addr uint16) *AMG8833 {
	if addr == 0 {
		addr = DefaultAddress
	}
	return &AMG8833{
		dev:       &i2c.Dev{Bus: bus, Addr: addr},
		Addr:      addr,
		swapBytes: !hostLittleEndian,
	}
}

// Open acquires the named I2C bus ("1" is /dev/i2c-1, "" picks the first
// available one) and initializes the sensor. When no address is given, both
// known Grid-EYE addresses are probed.
func Open(busName string, addr ...uint16) (*AMG8833, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to Open AMG8833 device: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to Open AMG8833 device: %w", err)
	}

	address := uint16(0)
	if len(addr) > 0 {
		address = addr[0]
	}
	if address == 0 {
		// Try to autodetect which address the sensor is strapped to
		address, err = probe(bus)
		if err != nil {
			bus.Close()
			return nil, fmt.Errorf("failed to Open AMG8833 device: %w", err)
		}
	}

	device := New(bus, address)
	device.closer = bus

	err = device.Initialize()

	return device, err
}

// Initialize wakes the sensor into normal mode, clears all pending status
// flags and forces a full flag reset. A failed write leaves the device
// state unconfirmed and is returned as-is; there is no retry.
func (a *AMG8833) Initialize() error {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	time.Sleep(settleTime)

	if err := a.writeRegister(POWER_CONTROL, uint8(NORMAL_MODE)); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if err := a.writeRegister(STATUS_CLEAR, clearAllFlags); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if err := a.writeRegister(RESET, uint8(INITIAL_RESET)); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	time.Sleep(settleTime)

	return nil
}

// Close releases the bus if this device opened it. Devices created with New
// leave bus ownership with the caller.
func (a *AMG8833) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *AMG8833) SetPowerMode(mode powerMode) error {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	if err := a.writeRegister(POWER_CONTROL, uint8(mode)); err != nil {
		return fmt.Errorf("failed to set power mode: %w", err)
	}
	return nil
}

func (a *AMG8833) Reset(mode resetMode) error {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	if err := a.writeRegister(RESET, uint8(mode)); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	return nil
}

func (a *AMG8833) SetFramerate(fps int) error {
	value, ok := frameRates[fps]
	if !ok {
		return fmt.Errorf("invalid target frame rate %d, must be 1 or 10", fps)
	}

	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	if err := a.writeRegister(FRAME_RATE, value); err != nil {
		return fmt.Errorf("failed to set frame rate: %w", err)
	}
	return nil
}

func (a *AMG8833) GetFramerate() (int, error) {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	data, err := a.readRegister(FRAME_RATE)
	if err != nil {
		return 0, fmt.Errorf("failed to read frame rate: %w", err)
	}
	if data[0]&0x01 == 0x01 {
		return 1, nil
	}
	return 10, nil
}

func (a *AMG8833) SetMovingAverage(enabled bool) error {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	// An AVERAGE write only takes effect wrapped in the unlock pattern
	for _, value := range averageUnlock {
		if err := a.writeRegister(AVERAGE_PATTERN, value); err != nil {
			return fmt.Errorf("failed to set moving average: %w", err)
		}
	}

	value := uint8(0x00)
	if enabled {
		value = twiceMovingAverage
	}
	if err := a.writeRegister(AVERAGE, value); err != nil {
		return fmt.Errorf("failed to set moving average: %w", err)
	}

	if err := a.writeRegister(AVERAGE_PATTERN, 0x00); err != nil {
		return fmt.Errorf("failed to set moving average: %w", err)
	}

	return nil
}

func (a *AMG8833) SetInterrupt(interruptConfig InterruptConfig) error {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	if err := a.writeLevel(INT_LEVEL_HIGH_LSB, INT_LEVEL_HIGH_MSB, interruptConfig.High); err != nil {
		return fmt.Errorf("failed to set interrupt high level: %w", err)
	}
	if err := a.writeLevel(INT_LEVEL_LOW_LSB, INT_LEVEL_LOW_MSB, interruptConfig.Low); err != nil {
		return fmt.Errorf("failed to set interrupt low level: %w", err)
	}
	if err := a.writeLevel(INT_HYSTERESIS_LSB, INT_HYSTERESIS_MSB, interruptConfig.Hysteresis); err != nil {
		return fmt.Errorf("failed to set interrupt hysteresis: %w", err)
	}

	int_control := uint8(0x00)
	if interruptConfig.Enabled {
		int_control |= 0x01
		if interruptConfig.Absolute {
			int_control |= 0x02
		}
	}

	if err := a.writeRegister(INT_CONTROL, int_control); err != nil {
		return fmt.Errorf("failed to set interrupt control: %w", err)
	}

	return nil
}

// Status reads the pending flag state: INT pin asserted, pixel output
// overflow, thermistor output overflow.
func (a *AMG8833) Status() (StatusFlags, error) {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	data, err := a.readRegister(STATUS)
	if err != nil {
		return StatusFlags{}, fmt.Errorf("failed to read status: %w", err)
	}

	return StatusFlags{
		Interrupt:          data[0]&0x02 != 0,
		PixelOverflow:      data[0]&0x04 != 0,
		ThermistorOverflow: data[0]&0x08 != 0,
	}, nil
}

type StatusFlags struct {
	Interrupt          bool
	PixelOverflow      bool
	ThermistorOverflow bool
}

func (a *AMG8833) ClearStatus() error {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	if err := a.writeRegister(STATUS_CLEAR, clearAllFlags); err != nil {
		return fmt.Errorf("failed to clear status: %w", err)
	}
	return nil
}

// InterruptTable returns the indices of pixels holding a pending interrupt,
// one bit per pixel across the eight table registers.
func (a *AMG8833) InterruptTable() ([]int, error) {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	data, err := a.readRegister(INT_TABLE)
	if err != nil {
		return nil, fmt.Errorf("failed to read interrupt table: %w", err)
	}

	var pixels []int
	for i, row := range data {
		for bit := 0; bit < 8; bit++ {
			if row&(1<<bit) != 0 {
				pixels = append(pixels, i*8+bit)
			}
		}
	}
	return pixels, nil
}

// Thermistor reads the on-board reference thermistor in degrees Celsius.
func (a *AMG8833) Thermistor() (float64, error) {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	raw, err := a.readWord(THERMISTOR.Address)
	if err != nil {
		return 0, fmt.Errorf("failed to read thermistor: %w", err)
	}
	return decodeThermistor(raw, a.swapBytes), nil
}

// ReadFrame sweeps all 64 pixel registers in ascending address order and
// decodes each sample. The first value read is the top-left pixel.
func (a *AMG8833) ReadFrame() (*Frame, error) {
	a.busMutex.Lock()
	defer a.busMutex.Unlock()

	frame := &Frame{}
	for i := 0; i < PixelCount; i++ {
		raw, err := a.readWord(PIXEL_BASE.Address + uint8(2*i))
		if err != nil {
			return nil, fmt.Errorf("failed to read pixel %d: %w", i+1, err)
		}
		frame.Raw[i] = raw
		frame.Pix[i] = decodePixel(raw, a.swapBytes)
	}
	return frame, nil
}

// StartStream polls frames at the given interval on a background goroutine
// until the returned cancel function is called. The channel is closed when
// the stream stops, including after a read failure.
func (a *AMG8833) StartStream(interval time.Duration) (context.CancelFunc, <-chan *Frame, error) {
	if interval <= 0 {
		return nil, nil, fmt.Errorf("invalid stream interval %v, must be positive", interval)
	}

	streamContext, cancel := context.WithCancel(context.Background())

	// Create a channel that transports decoded frames
	frameStream := make(chan *Frame, 10)
	go func() {
		defer close(frameStream)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-streamContext.Done():
				return
			case <-ticker.C:
				frame, err := a.ReadFrame()
				if err != nil {
					log.Printf("Failed to read frame: %s", err)
					return
				}

				select {
				case frameStream <- frame:
				case <-streamContext.Done():
					return
				}
			}
		}
	}()
	return cancel, frameStream, nil
}

func (a *AMG8833) writeLevel(lsb register, msb register, level float64) error {
	lsbValue, msbValue := encodeLevel(level)
	if err := a.writeRegister(lsb, lsbValue); err != nil {
		return err
	}
	return a.writeRegister(msb, msbValue)
}

func (a *AMG8833) writeRegister(reg register, value uint8) error {
	if reg.ReadOnly {
		return fmt.Errorf("register is read-only")
	}

	if err := a.dev.Tx([]byte{reg.Address, value}, nil); err != nil {
		return fmt.Errorf("failed to write register: %w", err)
	}

	return nil
}

func (a *AMG8833) readRegister(reg register) ([]byte, error) {
	var responseData = make([]byte, reg.Length)
	for i := uint8(0); i < uint8(reg.Length); i++ {
		if err := a.dev.Tx([]byte{reg.Address + i}, responseData[i:i+1]); err != nil {
			return []byte{}, fmt.Errorf("failed to read register: %w", err)
		}
	}
	return responseData, nil
}

// readWord reads a register pair, low byte first, and assembles it in host
// order; the decoders swap the bytes back on big-endian machines.
func (a *AMG8833) readWord(address uint8) (uint16, error) {
	buf := make([]byte, 2)
	if err := a.dev.Tx([]byte{address}, buf); err != nil {
		return 0, fmt.Errorf("failed to read register: %w", err)
	}
	return binary.NativeEndian.Uint16(buf), nil
}

func probe(bus i2c.Bus) (uint16, error) {
	buf := make([]byte, 1)
	for _, address := range []uint16{DefaultAddress, JumperAddress} {
		dev := i2c.Dev{Bus: bus, Addr: address}
		if err := dev.Tx([]byte{POWER_CONTROL.Address}, buf); err == nil {
			return address, nil
		}
	}
	return 0, fmt.Errorf("no device found at 0x%02X or 0x%02X", DefaultAddress, JumperAddress)
}
