package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/eventscope/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("eventscope setup")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.Feed.URL = prompt(scanner, "Websocket feed URL (optional)", cfg.Feed.URL)
		cfg.Feed.RedisAddr = prompt(scanner, "Redis address (optional)", cfg.Feed.RedisAddr)
		if cfg.Feed.RedisAddr != "" {
			cfg.Feed.RedisChannel = prompt(scanner, "Redis channel", cfg.Feed.RedisChannel)
		}

		days := prompt(scanner, "Retention (days)", strconv.Itoa(cfg.RetentionDays))
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			cfg.RetentionDays = n
		}

		types := prompt(scanner, "Allowed event types (comma separated)", strings.Join(cfg.Events.AllowedTypes, ","))
		cfg.Events.AllowedTypes = splitList(types)

		cfg.Geo.TablePath = prompt(scanner, "Location table path (JSON or YAML, optional)", cfg.Geo.TablePath)
		cfg.HTTP.Addr = prompt(scanner, "HTTP listen address", cfg.HTTP.Addr)

		cfg.Telegram.Token = prompt(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)
		targets := prompt(scanner, "Alert targets (comma separated)", strings.Join(cfg.Alerts.Targets, ","))
		cfg.Alerts.Targets = splitList(targets)

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
