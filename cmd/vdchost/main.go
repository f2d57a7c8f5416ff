// vdchost runs a vDC API device host: a single-peer TCP server exposing a
// host/connector/device property tree to one controller at a time, with
// scene support, a push-notification pipeline, and a YAML-backed soft-state
// store.
//
// Usage:
//
//	vdchost serve                 # run the host (foreground)
//	vdchost show                  # dump the entity tree
//	vdchost settings show|set|clear|path # manage persisted settings
//	vdchost version                # print build info
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vdc-project/vdchost/pkg/audit"
	"github.com/vdc-project/vdchost/pkg/discovery"
	"github.com/vdc-project/vdchost/pkg/entity"
	"github.com/vdc-project/vdchost/pkg/settings"
	"github.com/vdc-project/vdchost/pkg/store"
	"github.com/vdc-project/vdchost/pkg/uid"
	"github.com/vdc-project/vdchost/pkg/version"
	"github.com/vdc-project/vdchost/pkg/vlog"
)

// App holds CLI state shared across all commands.
type App struct {
	storePath  string
	listenPort int
	verbose    bool

	settings *settings.Settings
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "vdchost",
	Short:         "vDC API device host",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			vlog.Logger.Warnf("could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}
		if app.storePath == "" {
			app.storePath = app.settings.GetStorePath()
		}
		if app.listenPort == 0 {
			app.listenPort = app.settings.GetListenPort()
		}

		if app.verbose {
			vlog.SetLevel("debug")
		} else {
			vlog.SetLevel("info")
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.storePath, "store", "p", "", "Persistence file path")
	rootCmd.PersistentFlags().IntVarP(&app.listenPort, "port", "P", 0, "vDC API TCP listen port")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(serveCmd, showCmd, settingsCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the device host in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(app.storePath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}

		host := buildHost(st)

		auditPath := app.settings.GetAuditLogPath(app.storePath)
		auditLogger, err := audit.NewFileLogger(auditPath, audit.RotationConfig{
			MaxSize:    int64(app.settings.GetAuditMaxSizeMB()) * 1024 * 1024,
			MaxBackups: app.settings.GetAuditMaxBackups(),
		})
		if err != nil {
			vlog.Logger.Warnf("could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
			defer auditLogger.Close()
		}

		srv := NewServer(host)

		var announcer *discovery.Announcer
		if !app.settings.DiscoveryDisabled {
			announcer, err = discovery.Announce(host.Name, app.listenPort, []string{
				"uid=" + host.UID.String(),
				"vendor=" + host.Vendor,
			})
			if err != nil {
				vlog.Logger.Warnf("discovery announce failed: %v", err)
			} else {
				defer announcer.Stop()
			}
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve(fmt.Sprintf(":%d", app.listenPort)) }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

		select {
		case err := <-errCh:
			return err
		case <-sigCh:
			vlog.Logger.Infof("vdchost: shutting down")
		}

		srv.Stop()
		return st.Save()
	},
}

var showProperties bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Dump the host's connector/device tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(app.storePath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		host := buildHost(st)
		printHostTree(host, showProperties)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showProperties, "properties", false, "Also dump each device's full property tree")
}

// buildHost constructs a fresh entity tree rooted at a host populated from
// the store's persisted host-level customization. Connector/device
// enumeration itself is driven by hardware-specific discovery, which is
// out of this CLI's scope (spec.md §1) — an empty host is a valid starting
// point that a connector implementation populates via AddConnector.
func buildHost(st *store.Store) *entity.Host {
	rec := st.Host()
	name := rec.Name
	if name == "" {
		name = "vdchost"
	}
	id := uid.Generate(uid.NamespaceHost, "vdc-project", name, 0)
	host := entity.NewHost(id, name, "vdc-project", "1.0", app.listenPort)
	return host
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings or
// help command, which skip store/port resolution.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "settings":
			return true
		}
	}
	return false
}
