package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vdc-project/vdchost/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.vdchost/settings.json.

Examples:
  vdchost settings show
  vdchost settings set store_path /etc/vdchost/host.yaml
  vdchost settings set listen_port 8447
  vdchost settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SETTING\tVALUE")
		fmt.Fprintln(w, "-------\t-----")

		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintf(w, "%s\t%s\n", name, value)
		}

		printSetting("store_path", s.StorePath)
		printSetting("listen_port", intOrEmpty(s.ListenPort))
		printSetting("audit_log_path", s.AuditLogPath)
		printSetting("audit_max_size_mb", intOrEmpty(s.AuditMaxSizeMB))
		printSetting("audit_max_backups", intOrEmpty(s.AuditMaxBackups))
		printSetting("discovery_disabled", boolStr(s.DiscoveryDisabled))

		w.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value.

Available settings:
  store_path          - Persistence file path
  listen_port         - vDC API TCP listen port
  audit_log_path      - Audit log path
  audit_max_size_mb   - Audit log rotation size in MB
  audit_max_backups   - Max rotated audit log files to retain
  discovery_disabled  - Disable mDNS/DNS-SD announcement (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting, value := args[0], args[1]

		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}

		switch setting {
		case "store_path":
			s.StorePath = value
		case "listen_port":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid port: %w", err)
			}
			s.ListenPort = n
		case "audit_log_path":
			s.AuditLogPath = value
		case "audit_max_size_mb":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid size: %w", err)
			}
			s.AuditMaxSizeMB = n
		case "audit_max_backups":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid count: %w", err)
			}
			s.AuditMaxBackups = n
		case "discovery_disabled":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid bool: %w", err)
			}
			s.DiscoveryDisabled = b
		default:
			return fmt.Errorf("unknown setting: %s", setting)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Printf("%s set to: %s\n", setting, value)
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("All settings cleared.")
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(settings.DefaultSettingsPath())
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
	settingsCmd.AddCommand(settingsPathCmd)
}

func intOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return ""
}
