package main

import (
	"errors"
	"flag"
	"image"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/flipdot"
	"github.com/BeatGlow/flipdot/draw"
	"github.com/BeatGlow/flipdot/internal/config"
	"github.com/BeatGlow/flipdot/internal/server"
	"github.com/BeatGlow/flipdot/pixel"
)

func main() {
	var (
		configPath = flag.String("config", "/etc/flipdotd.yaml", "path to the YAML configuration")
		addr       = flag.String("addr", "", "HTTP listen address, overrides http.addr")
		greeting   = flag.String("greeting", "", "text shown after start up")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	logger := newLogger(cfg.Log)
	log.Logger = logger
	flipdot.SetLogger(logger.With().Str("pkg", "flipdot").Logger())

	if _, err = host.Init(); err != nil {
		log.Fatal().Err(err).Msg("host init failed")
	}

	d, err := cfg.Open()
	if err != nil {
		log.Fatal().Err(err).Str("transport", cfg.Transport).Msg("display open failed")
	}
	if err = d.Init(); err != nil {
		log.Fatal().Err(err).Msg("display init failed")
	}
	log.Info().Stringer("display", d).Msg("display ready")

	if *greeting != "" {
		draw.Text(d, image.Point{}, *greeting, pixel.On)
	}
	if err = d.Refresh(); err != nil {
		log.Error().Err(err).Msg("initial refresh failed")
	}

	api := server.New(d, logger)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	_ = srv.Close()
	_ = api.Do(func(d *flipdot.Display) error {
		if err := d.Close(); err != nil {
			log.Warn().Err(err).Msg("display close failed")
		}
		return d.Transport().Close()
	})
}

func newLogger(c config.Log) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if c.File != "" {
		out = &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAgeDays,
			Compress:   c.Compress,
		}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
