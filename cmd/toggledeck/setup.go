package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/phinze/toggledeck/internal/config"
	"github.com/phinze/toggledeck/internal/homeassistant"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup: write config and store the Home Assistant token in Keychain",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("=== Toggledeck Setup ===")
	fmt.Println()

	// Load existing config as defaults
	existing, _ := config.LoadFrom(configPath)
	if existing == nil {
		existing = &config.Config{}
	}

	cfg := &config.Config{Animation: existing.Animation}

	fmt.Println("-- Home Assistant --")
	cfg.HomeAssistant.Server = prompt(reader, "Home Assistant server URL", existing.HomeAssistant.Server)

	hassToken := promptSecret(reader, "Home Assistant token", existing.HomeAssistant.Token != "")
	if hassToken != "" {
		if err := config.SetKeychainSecret(config.KeyHASSToken, hassToken); err != nil {
			return fmt.Errorf("storing HA token in Keychain: %w", err)
		}
		fmt.Println("  -> Stored in Keychain")
	} else {
		fmt.Println("  -> Kept existing")
	}
	fmt.Println()

	fmt.Println("-- Switches (one per strip slot, leave the name empty to skip) --")
	usedKeys := map[int]bool{}
	for slot := range config.SlotCount {
		var prev config.SwitchConfig
		for _, s := range existing.Switches {
			if s.Slot == slot {
				prev = s
			}
		}

		fmt.Printf(" Slot %d (dial %d)\n", slot+1, slot+1)
		name := prompt(reader, "Name", prev.Name)
		if name == "" {
			continue
		}
		sc := prev
		sc.Name = name
		sc.Slot = slot
		sc.Entity = prompt(reader, "Entity ID (e.g. light.desk)", prev.Entity)
		if sc.Entity != "" {
			if _, err := homeassistant.Domain(sc.Entity); err != nil {
				fmt.Printf("  -> %v, switch will be local\n", err)
				sc.Entity = ""
			}
		}
		sc.Key = promptKey(reader, prev.Key, usedKeys)
		usedKeys[sc.Key] = sc.Key != 0
		cfg.Switches = append(cfg.Switches, sc)
	}
	fmt.Println()

	if err := config.WriteConfigFileTo(configPath, cfg); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Printf("Config written to %s\n", configPath)
	fmt.Println("Setup complete!")
	return nil
}

// prompt asks for a value with an optional default.
func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

// promptKey asks for an optional mirror key not in used; "-" removes one.
func promptKey(reader *bufio.Reader, defaultKey int, used map[int]bool) int {
	def := ""
	if defaultKey != 0 && !used[defaultKey] {
		def = strconv.Itoa(defaultKey)
	}
	for {
		v := prompt(reader, fmt.Sprintf("Mirror on key 1-%d (optional, - for none)", config.KeyCount), def)
		if v == "" || v == "-" {
			return 0
		}
		k, err := strconv.Atoi(v)
		switch {
		case err != nil || k < 1 || k > config.KeyCount:
			fmt.Printf("  -> not a key number\n")
		case used[k]:
			fmt.Printf("  -> key %d is already taken\n", k)
		default:
			return k
		}
	}
}

// promptSecret asks for a secret value. If one already exists, allows keeping it.
func promptSecret(reader *bufio.Reader, label string, hasExisting bool) string {
	if hasExisting {
		fmt.Printf("  %s [press Enter to keep existing]: ", label)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
