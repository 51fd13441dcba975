package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/phinze/toggledeck/internal/config"
	"github.com/phinze/toggledeck/internal/homeassistant"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check config, secrets, Home Assistant entities and device health",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Toggledeck Status ===")
	fmt.Println()

	allOK := true

	fmt.Printf("Config file: %s\n", configPath)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("  Status: found")
	} else {
		fmt.Println("  Status: NOT FOUND (using defaults)")
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Printf("  Load error: %v\n", err)
		allOK = false
	}
	fmt.Println()

	fmt.Println("Home Assistant:")
	if cfg != nil && cfg.HomeAssistant.Server != "" {
		fmt.Printf("  Server: %s\n", cfg.HomeAssistant.Server)
	} else {
		fmt.Println("  Server: NOT SET")
		allOK = false
	}

	if _, err := config.GetKeychainSecret(config.KeyHASSToken); err == nil {
		fmt.Println("  Token (Keychain): set")
	} else if cfg != nil && cfg.HomeAssistant.Token != "" {
		fmt.Println("  Token (env): set")
	} else {
		fmt.Println("  Token: NOT SET")
		allOK = false
	}
	fmt.Println()

	if cfg != nil {
		var client *homeassistant.Client
		if cfg.HomeAssistant.Configured() {
			client = homeassistant.NewClient(cfg.HomeAssistant.Server, cfg.HomeAssistant.Token)
		}

		fmt.Println("Switches:")
		for _, s := range cfg.Switches {
			where := fmt.Sprintf("slot %d, dial %d", s.Slot+1, s.Dial())
			if s.Key != 0 {
				where += fmt.Sprintf(", key %d", s.Key)
			}
			fmt.Printf("  %s (%s)\n", s.Name, where)

			switch {
			case s.Entity == "":
				fmt.Println("    Entity: none (local)")
			case client == nil:
				fmt.Printf("    Entity: %s (not checked)\n", s.Entity)
			default:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				on, err := client.State(ctx, s.Entity)
				cancel()
				if err != nil {
					fmt.Printf("    Entity: %s UNREACHABLE: %v\n", s.Entity, err)
					allOK = false
				} else {
					fmt.Printf("    Entity: %s is %s\n", s.Entity, map[bool]string{true: "on", false: "off"}[on])
				}
			}
		}
		fmt.Println()
	}

	// Device check (quick USB probe)
	fmt.Println("Stream Deck:")
	if dev := tryGetDeviceWithTimeout(2 * time.Second); dev != nil {
		fmt.Printf("  Device: CONNECTED (%s)\n", dev.GetModelName())
		dev.Close()
	} else {
		fmt.Println("  Device: not detected")
	}
	fmt.Println()

	if allOK {
		fmt.Println("All checks passed.")
	} else {
		fmt.Println("Some checks failed. Run 'toggledeck setup' to configure.")
	}

	return nil
}
