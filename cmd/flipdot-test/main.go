package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/flipdot"
	"github.com/BeatGlow/flipdot/draw"
	"github.com/BeatGlow/flipdot/pixel"
)

func main() {
	widthFlag := flag.Int("width", 28, "Display width")
	heightFlag := flag.Int("height", 16, "Display height")
	rotateFlag := flag.String("rotate", "", "Display rotation")
	resetPinFlag := flag.String("reset", "", "Reset GPIO pin")
	skipResetFlag := flag.Bool("skip-reset", false, "Do not pulse the reset line")
	i2cDeviceFlag := flag.Int("i2c-dev", flipdot.DefaultI2CConfig.Device, "I²C device number (default: use first available)")
	i2cAddrFlag := flag.Uint("i2c-addr", uint(flipdot.DefaultI2CConfig.Addr), "I²C device address")
	i2cPacketFlag := flag.Int("i2c-packet", flipdot.DefaultI2CConfig.MaxPacketSize, "I²C maximum packet size")
	spiBusFlag := flag.Int("spi-bus", 0, "SPI bus")
	spiDeviceFlag := flag.Int("spi-dev", 0, "SPI device")
	spiSpeedFlag := flag.Uint("spi-speed", uint(flipdot.DefaultSPIConfig.SpeedHz), "SPI speed in Hz")
	dcPinFlag := flag.String("dc", "GPIO24", "Data/Command GPIO pin (DC)")
	csPinFlag := flag.String("cs", "", "Chip select GPIO pin")
	rowPinFlag := flag.String("row", "GPIO5", "Row counter advance GPIO pin")
	colPinFlag := flag.String("col", "GPIO6", "Column counter advance GPIO pin")
	coilPinFlag := flag.String("coil", "GPIO13", "Coil pulse GPIO pin")
	setPinFlag := flag.String("set", "GPIO19", "Coil polarity GPIO pin")
	enablePinFlag := flag.String("enable", "GPIO26", "Comma separated panel enable GPIO pins")
	panelFlag := flag.Int("panel", 1, "Panel to enable (1-4)")
	pulseFlag := flag.Duration("pulse", flipdot.DefaultPulseWidth, "Coil pulse width")
	textFlag := flag.String("text", "", "Text to show instead of the test pattern")
	intervalFlag := flag.Duration("interval", 500*time.Millisecond, "Time between frames")
	debugFlag := flag.Bool("debug", false, "Log driver debug output")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if *debugFlag {
		flipdot.SetLogger(log.Logger.Level(zerolog.DebugLevel).With().Str("pkg", "flipdot").Logger())
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s <i2c|spi|counter>\n", os.Args[0])
		os.Exit(1)
	}

	rotation, ok := flipdot.ParseRotation(*rotateFlag)
	if !ok {
		log.Fatal().Str("rotation", *rotateFlag).Msg("invalid rotation")
	}
	log.Info().Stringer("rotation", rotation).Msg("using rotation")

	if _, err := host.Init(); err != nil {
		log.Fatal().Err(err).Msg("host init failed")
	}

	var (
		config = &flipdot.Config{
			Width:     *widthFlag,
			Height:    *heightFlag,
			Rotation:  rotation,
			SkipReset: *skipResetFlag,
		}
		transport flipdot.Transport
		err       error
	)
	if *resetPinFlag != "" {
		config.Reset = pin(*resetPinFlag)
	}

	switch busType := strings.ToLower(flag.Arg(0)); busType {
	case "i2c":
		transport, err = flipdot.OpenI2C(&flipdot.I2CConfig{
			Device:        *i2cDeviceFlag,
			Addr:          uint8(*i2cAddrFlag),
			MaxPacketSize: *i2cPacketFlag,
		})
	case "spi":
		spiConfig := &flipdot.SPIConfig{
			Bus:     *spiBusFlag,
			Device:  *spiDeviceFlag,
			Mode:    spi.Mode0,
			SpeedHz: uint32(*spiSpeedFlag),
			DC:      pin(*dcPinFlag),
		}
		if *csPinFlag != "" {
			spiConfig.CS = pin(*csPinFlag)
		}
		transport, err = flipdot.OpenSPI(spiConfig)
	case "counter":
		counterConfig := &flipdot.CounterConfig{
			RowAdvance: pin(*rowPinFlag),
			ColAdvance: pin(*colPinFlag),
			CoilPulse:  pin(*coilPinFlag),
			Set:        pin(*setPinFlag),
			Panel:      *panelFlag,
			PulseWidth: *pulseFlag,
		}
		for i, name := range strings.Split(*enablePinFlag, ",") {
			if name = strings.TrimSpace(name); name != "" && i < len(counterConfig.Enable) {
				counterConfig.Enable[i] = pin(name)
			}
		}
		transport, err = flipdot.NewCounter(counterConfig)
	default:
		err = fmt.Errorf("unsupported transport %q", busType)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("transport failed")
	}
	defer transport.Close()
	log.Info().Stringer("transport", transport).Msg("using transport")

	output, err := flipdot.New(transport, config)
	if err != nil {
		log.Fatal().Err(err).Msg("display failed")
	}
	if err = output.Init(); err != nil {
		log.Fatal().Err(err).Msg("display init failed")
	}
	defer output.Close()
	log.Info().Stringer("display", output).Msg("using display")

	var (
		offset int
		ticker = time.NewTicker(*intervalFlag)
		w      = output.Width()
		h      = output.Height()
	)
	defer ticker.Stop()

	// Draw box around edge
	draw.Rectangle(output, image.Rect(0, 0, w, h), pixel.On)
	if err = output.Refresh(); err != nil {
		log.Fatal().Err(err).Msg("refresh failed")
	}

	log.Info().Msg("hit control-c to stop...")
	for {
		if *textFlag != "" {
			// Scroll the text through the inside of the box
			tw, _ := draw.MeasureText(draw.DefaultFace, *textFlag)
			draw.Box(output, image.Rect(1, 1, w-1, h-1), pixel.Off)
			draw.Text(output, image.Pt(w-1-offset%(tw+w), 1), *textFlag, pixel.On)
			draw.Rectangle(output, image.Rect(0, 0, w, h), pixel.On)
		} else {
			// Draw diagonal stripes inside box
			for y := 1; y < h-1; y++ {
				for x := 1; x < w-1; x++ {
					if (x+y+offset)%4 == 0 {
						output.SetPixel(x, y, pixel.On)
					} else {
						output.SetPixel(x, y, pixel.Off)
					}
				}
			}
		}

		start := time.Now()
		if err = output.Refresh(); err != nil {
			log.Fatal().Err(err).Msg("refresh failed")
		}
		ev := log.Debug().Dur("took", time.Since(start))
		if c, ok := transport.(*flipdot.Counter); ok {
			stats := c.Stats()
			ev = ev.Int("dots", stats.Dots).Bool("full", stats.Full)
		}
		ev.Msg("refresh")

		offset++
		<-ticker.C
	}
}

func pin(name string) gpio.PinIO {
	p := gpioreg.ByName(name)
	if p == nil {
		log.Fatal().Str("pin", name).Msg("unknown GPIO pin")
	}
	return p
}
