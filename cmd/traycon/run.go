package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/traycon"
	"pkt.systems/traycon/core"
	"pkt.systems/traycon/httpapi"
	"pkt.systems/traycon/internal/appconfig"
	"pkt.systems/traycon/schema"
	"pkt.systems/traycon/sshconsole"
	"pkt.systems/traycon/tray"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	var withTray bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the traycon console service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if withTray {
				cfg.Tray.Enabled = true
			}
			consoleCfg, err := toConsoleConfig(cfg.Console)
			if err != nil {
				return err
			}
			if !cfg.SSH.Enabled && !cfg.HTTP.Enabled && !cfg.Tray.Enabled {
				return errors.New("nothing to serve: enable ssh, http, or tray")
			}

			serverCfg := traycon.ServerConfig{
				Console:    consoleCfg,
				SSH:        toSSHConfig(cfg.SSH),
				HTTP:       toHTTPConfig(cfg.HTTP),
				HubHistory: 1000,
			}
			consoleDeps := core.ConsoleDeps{Logger: logger}

			var trayAdapter *tray.Tray
			if cfg.Tray.Enabled {
				trayAdapter = tray.New(cfg.Tray.Tooltip, logger)
				consoleDeps.Tray = trayAdapter
				consoleDeps.Release = append(consoleDeps.Release, trayAdapter.Quit)
			}

			opts := make([]traycon.ServerOption, 0, 2)
			if cfg.SSH.Enabled {
				opts = append(opts, traycon.WithSSH())
			}
			if cfg.HTTP.Enabled {
				opts = append(opts, traycon.WithHTTP())
			}

			server, err := traycon.New(serverCfg, traycon.ServerDeps{ConsoleDeps: consoleDeps}, opts...)
			if err != nil {
				return err
			}
			if trayAdapter != nil {
				trayAdapter.Bind(server.Service())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if cfg.SSH.Enabled {
				logger.Info("ssh console listening", "addr", serverCfg.SSH.Addr)
			}
			if cfg.HTTP.Enabled {
				logger.Info("http api listening", "addr", serverCfg.HTTP.Addr)
			}
			if err := server.Start(ctx); err != nil {
				return err
			}
			if trayAdapter != nil {
				// systray must own the process main goroutine; the server
				// waits on the side and its shutdown release hook ends the
				// tray loop.
				waitErr := make(chan error, 1)
				go func() { waitErr <- server.Wait() }()
				trayAdapter.Run(ctx, nil, stop)
				return <-waitErr
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&withTray, "tray", false, "show the OS tray icon (overrides tray.enabled)")
	return cmd
}

func toConsoleConfig(cfg appconfig.ConsoleConfig) (schema.ConsoleConfig, error) {
	lineEnding, err := appconfig.ParseLineEnding(cfg.LineEnding)
	if err != nil {
		return schema.ConsoleConfig{}, err
	}
	return schema.NormalizeConsoleConfig(schema.ConsoleConfig{
		TranscriptCapacity: cfg.TranscriptCapacity,
		LineEnding:         lineEnding,
		StatusText:         cfg.StatusText,
		ProducerInterval:   time.Duration(cfg.ProducerIntervalMillis) * time.Millisecond,
		ShutdownTimeout:    time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second,
		QueueSize:          cfg.QueueSize,
	})
}

func toSSHConfig(cfg appconfig.SSHConfig) sshconsole.Config {
	return sshconsole.Config{
		Addr:           cfg.Addr,
		HostKeyPath:    cfg.HostKeyPath,
		KeyStorePath:   cfg.KeyStorePath,
		AuthorizedKeys: cfg.AuthorizedKeys,
	}
}

func toHTTPConfig(cfg appconfig.HTTPConfig) httpapi.Config {
	return httpapi.Config{Addr: cfg.Addr}
}
