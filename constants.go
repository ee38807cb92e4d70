package amg8833

type register struct {
	Address  uint8
	Length   int
	ReadOnly bool
}

var POWER_CONTROL = register{0x00, 1, false}
var RESET = register{0x01, 1, false}
var FRAME_RATE = register{0x02, 1, false}
var INT_CONTROL = register{0x03, 1, false}
var STATUS = register{0x04, 1, true}
var STATUS_CLEAR = register{0x05, 1, false}
var AVERAGE = register{0x07, 1, false}
var INT_LEVEL_HIGH_LSB = register{0x08, 1, false}
var INT_LEVEL_HIGH_MSB = register{0x09, 1, false}
var INT_LEVEL_LOW_LSB = register{0x0A, 1, false}
var INT_LEVEL_LOW_MSB = register{0x0B, 1, false}
var INT_HYSTERESIS_LSB = register{0x0C, 1, false}
var INT_HYSTERESIS_MSB = register{0x0D, 1, false}
var THERMISTOR = register{0x0E, 2, true}
var INT_TABLE = register{0x10, 8, true}
var AVERAGE_PATTERN = register{0x1F, 1, false}
var PIXEL_BASE = register{0x80, 128, true}

type powerMode uint8

var NORMAL_MODE = powerMode(0x00)
var SLEEP_MODE = powerMode(0x10)
var STANDBY_60S = powerMode(0x20)
var STANDBY_10S = powerMode(0x21)

type resetMode uint8

var INITIAL_RESET = resetMode(0x3F)
var FLAG_RESET = resetMode(0x30)

// Frame rate select values accepted by SetFrameRate.
var frameRates = map[int]uint8{
	10: 0x00,
	1:  0x01,
}

const (
	// DefaultAddress is the Grid-EYE's I2C address. JumperAddress applies
	// when the AD_SELECT jumper on the board is soldered.
	DefaultAddress uint16 = 0x69
	JumperAddress  uint16 = 0x68

	// The pixel grid spans 8x8, read row-major with index 0 at the top
	// left along the line of sight.
	Rows       = 8
	Cols       = 8
	PixelCount = Rows * Cols

	// One pixel step is 0.25°C; the on-board thermistor resolves 0.0625°C.
	PixelResolution      = 0.25
	ThermistorResolution = 0.0625
)

// clearAllFlags resets the interrupt flag and both overflow flags in a
// single STATUS_CLEAR write.
const clearAllFlags = uint8(0x0E)

const twiceMovingAverage = uint8(0x20)

// averageUnlock precedes AVERAGE updates; the part ignores a bare write.
var averageUnlock = []uint8{0x50, 0x45, 0x57}
