package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phinze/toggledeck/internal/config"
	"github.com/phinze/toggledeck/internal/deck"
	"github.com/phinze/toggledeck/internal/device"
	"github.com/phinze/toggledeck/internal/hotplug"
	"github.com/prashantgupta24/mac-sleep-notifier/notifier"
	"github.com/spf13/cobra"
	"rafaelmartins.com/p/streamdeck"
)

const (
	deviceTimeout = 5 * time.Second
	pollInterval  = 2 * time.Second
)

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}

	slog.Info("Starting toggledeck", "config", configPath, "switches", len(cfg.Switches))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	wakeCh := watchWake()
	arrivals := hotplug.Arrivals(ctx)

	// Main device loop - wait for device, run, repeat on disconnect
	for {
		dev := waitForHardwareDevice(ctx, wakeCh, arrivals)
		if dev == nil {
			return nil
		}

		// Check context before starting - avoid race where device connects after shutdown requested
		if ctx.Err() != nil {
			dev.Close()
			return nil
		}

		// A wake from before the device came back must not tear it down again.
		drain(wakeCh)

		// USB enumeration may not be complete even after GetDevice succeeds.
		time.Sleep(500 * time.Millisecond)

		if err := runWithDevice(ctx, dev, cfg, wakeCh); errors.Is(err, deck.ErrLayoutChanged) {
			next, err := config.LoadFrom(configPath)
			if err != nil {
				slog.Warn("Reloading config", "err", err)
			} else {
				cfg = next
			}
		}

		if ctx.Err() != nil {
			slog.Info("Exiting")
			return nil
		}
		slog.Info("Waiting for device reconnect")
	}
}

// watchWake forwards system wake notifications.
func watchWake() <-chan struct{} {
	sleepCh := notifier.GetInstance().Start()
	wakeCh := make(chan struct{}, 1)
	go func() {
		for activity := range sleepCh {
			if activity.Type == notifier.Awake {
				slog.Info("System wake detected")
				select {
				case wakeCh <- struct{}{}:
				default:
				}
			}
		}
	}()
	return wakeCh
}

func drain(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
			slog.Debug("Draining stale signal")
		default:
			return
		}
	}
}

// tryGetDeviceWithTimeout attempts to get and open a Stream Deck device with a timeout.
// The timeout prevents blocking indefinitely when the USB subsystem is in a bad state.
func tryGetDeviceWithTimeout(timeout time.Duration) *streamdeck.Device {
	type result struct {
		dev *streamdeck.Device
		err error
	}
	ch := make(chan result, 1)

	go func() {
		dev, err := streamdeck.GetDevice("")
		if err != nil {
			ch <- result{nil, err}
			return
		}
		if err := dev.Open(); err != nil {
			ch <- result{nil, err}
			return
		}
		ch <- result{dev, nil}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			slog.Debug("No device", "err", r.err)
			return nil
		}
		return r.dev
	case <-time.After(timeout):
		slog.Warn("Device detection timed out")
		return nil
	}
}

// probeRepeatedly retries for a few seconds; devices take a while to
// enumerate after wake or plug-in.
func probeRepeatedly(ctx context.Context) device.Device {
	for range 10 {
		if dev := tryGetDeviceWithTimeout(deviceTimeout); dev != nil {
			slog.Info("Device connected")
			return device.NewHardware(dev)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil
}

// waitForHardwareDevice waits for a Stream Deck to become available. Plug-in
// and wake signals trigger an immediate probe; otherwise it polls.
func waitForHardwareDevice(ctx context.Context, wakeCh, arrivals <-chan struct{}) device.Device {
	if dev := tryGetDeviceWithTimeout(deviceTimeout); dev != nil {
		return device.NewHardware(dev)
	}

	slog.Info("Waiting for device")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wakeCh:
			slog.Info("Wake signal received, probing for device")
			if dev := probeRepeatedly(ctx); dev != nil {
				return dev
			}
			slog.Info("Device not found after wake, resuming polling")
		case _, ok := <-arrivals:
			if !ok {
				arrivals = nil
				continue
			}
			slog.Info("Stream Deck plugged in, probing")
			if dev := probeRepeatedly(ctx); dev != nil {
				return dev
			}
		case <-time.After(pollInterval):
		}

		if dev := tryGetDeviceWithTimeout(deviceTimeout); dev != nil {
			slog.Info("Device connected")
			return device.NewHardware(dev)
		}
	}
}

// runWithDevice runs the switches on dev until disconnect, wake, a layout
// change, or shutdown, then closes the device.
func runWithDevice(ctx context.Context, dev device.Device, cfg *config.Config, wakeCh <-chan struct{}) error {
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	go func() {
		select {
		case <-runCtx.Done():
		case <-wakeCh:
			slog.Info("Reconnecting device after wake")
			runCancel()
		}
	}()

	err := deck.Run(runCtx, dev, configPath, cfg)

	// The usbhid library doesn't cancel ongoing I/O on close, so callbacks
	// can fire after close with stale context pointers.
	time.Sleep(200 * time.Millisecond)

	closeDone := make(chan struct{})
	go func() {
		dev.Close()
		close(closeDone)
	}()

	// On shutdown, device.Close() may block indefinitely.
	select {
	case <-ctx.Done():
		slog.Info("Exiting")
		os.Exit(0)
	case <-closeDone:
	case <-time.After(3 * time.Second):
		slog.Warn("Device close timed out")
	}
	if err != nil {
		return fmt.Errorf("device session: %w", err)
	}
	return nil
}
