package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phinze/toggledeck/internal/config"
	"github.com/phinze/toggledeck/internal/deck"
	"github.com/phinze/toggledeck/internal/device"
	"github.com/phinze/toggledeck/internal/device/emulator"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "config file")
	verbose := flag.Bool("v", false, "log debug output")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Stream Deck emulator starting, close the window or press Ctrl+C to exit")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		slog.Error("Loading config", "err", err)
		os.Exit(1)
	}

	emu := emulator.New()
	if err := emu.Open(); err != nil {
		slog.Error("Opening emulator", "err", err)
		os.Exit(1)
	}

	go run(ctx, emu, *configPath, cfg)

	// The GUI must own the main thread on macOS.
	if err := emu.RunGUI(); err != nil {
		slog.Error("Emulator GUI", "err", err)
	}
}

// run drives the emulator until shutdown. Its handlers cannot be
// re-registered, so a layout change is only reported.
func run(ctx context.Context, dev device.Device, configPath string, cfg *config.Config) {
	err := deck.Run(ctx, dev, configPath, cfg)
	if ctx.Err() != nil {
		// Ctrl+C: the GUI loop has no other way out.
		dev.Close()
		os.Exit(0)
	}
	switch {
	case errors.Is(err, deck.ErrLayoutChanged):
		slog.Warn("Switch layout changed, restart the emulator to apply it")
	case err != nil:
		slog.Error("Emulator session ended", "err", err)
	}
}
