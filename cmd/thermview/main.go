package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	yml "gopkg.in/yaml.v2"

	amg8833 "github.com/stenebo/AMG8833"
	"github.com/stenebo/AMG8833/term"
)

var (
	// Version is the version number. Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "thermview.yml"
	k              = koanf.New(".")
)

// Config holds the startup options. The defaults reproduce a stock hookup:
// bus 1, default address, one frame per second on screen, sensor refresh
// rate left alone.
type Config struct {
	// Bus names the I2C bus, "1" for /dev/i2c-1; empty picks the first
	// available bus.
	Bus string `koanf:"bus" yaml:"bus"`

	// Addr is the device address, 0x69 or 0x68 with the AD_SELECT jumper
	// set; zero probes both.
	Addr int `koanf:"addr" yaml:"addr"`

	// Interval is the display refresh period.
	Interval time.Duration `koanf:"interval" yaml:"interval"`

	// FPS selects the sensor refresh rate, 1 or 10; zero keeps the device
	// default.
	FPS int `koanf:"fps" yaml:"fps"`
}

func setupconfig() {
	k.Load(structs.Provider(Config{
		Bus:      "1",
		Addr:     int(amg8833.DefaultAddress),
		Interval: time.Second}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // a missing file just means defaults
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func help() {
	str := `thermview displays a live AMG8833 Grid-EYE thermal image as a
color-banded 8x8 grid in the terminal.

Usage:
	thermview [command]

Without a command the display loop starts directly.

Commands:
	run      start the display loop
	conf     print the resolved configuration
	mkconf   write the default configuration to ` + ConfigFileName + `
	version  print the version
	help     this text

Configuration is read from ` + ConfigFileName + ` in the working directory
when present. Fields:
	bus       I2C bus name, "1" means /dev/i2c-1; empty picks the first
	          available bus
	addr      device address, 0x69 by default, 0x68 with the AD_SELECT
	          jumper set; 0 probes both
	interval  display refresh period, e.g. 1s or 500ms
	fps       sensor refresh rate, 1 or 10; 0 leaves the device default

Cells are colored against each frame's own statistics: the hottest pixel
red, pixels at or above the hi threshold yellow, the coldest pixel cyan,
pixels at or below the lo threshold blue.`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("thermview version %v\n", Version)
}

func run() {
	c := Config{}
	if err := k.Unmarshal("", &c); err != nil {
		log.Fatal(err)
	}
	if c.Interval <= 0 {
		log.Fatalf("invalid display interval %v, must be positive", c.Interval)
	}

	device, err := amg8833.Open(c.Bus, uint16(c.Addr))
	if err != nil {
		log.WithError(err).Fatal("failed to open sensor")
	}
	defer device.Close()
	log.Infof("AMG8833 ready on bus %q at 0x%02X", c.Bus, device.Addr)

	if c.FPS != 0 {
		if err := device.SetFramerate(c.FPS); err != nil {
			log.WithError(err).Fatal("failed to set frame rate")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := term.NewRenderer(os.Stdout)
	limiter := rate.NewLimiter(rate.Every(c.Interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			log.Info("interrupted, shutting down")
			return
		}
		display.Clear()
		frame, err := device.ReadFrame()
		if err != nil {
			log.WithError(err).Fatal("failed to read frame")
		}
		display.Render(frame)
	}
}

func main() {
	args := os.Args
	setupconfig()
	if len(args) == 1 {
		run()
		return
	}
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "run":
		run()
	case "version":
		pversion()
	default:
		log.Fatal("unknown command")
	}
}
