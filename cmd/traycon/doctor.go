package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	gossh "golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/traycon/core"
	"pkt.systems/traycon/internal/appconfig"
	"pkt.systems/traycon/internal/hostkeys"
	"pkt.systems/traycon/schema"
)

func newDoctorCmd() *cobra.Command {
	var cfgPath string
	var consoleTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run traycon diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())

			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			configPath := cfgPath
			if strings.TrimSpace(configPath) == "" {
				path, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				configPath = path
			}
			logger.Info("doctor start", "config", configPath)

			consoleCfg, err := toConsoleConfig(cfg.Console)
			if err != nil {
				return err
			}
			logger.Info("doctor config ok",
				"capacity", consoleCfg.TranscriptCapacity,
				"interval", consoleCfg.ProducerInterval,
				"status", consoleCfg.StatusText)

			if err := checkStateDir(cfg.StateDir); err != nil {
				return fmt.Errorf("doctor state dir: %w", err)
			}
			logger.Info("doctor state dir ok", "path", cfg.StateDir)

			if cfg.SSH.Enabled {
				keyStore, err := hostkeys.NewStoreWithLogger(cfg.SSH.KeyStorePath, cfg.SSH.HostKeyPath, logger)
				if err != nil {
					return fmt.Errorf("doctor host key store: %w", err)
				}
				signer, err := keyStore.EnsureSigner()
				if err != nil {
					return fmt.Errorf("doctor host key: %w", err)
				}
				logger.Info("doctor host key ok", "fingerprint", gossh.FingerprintSHA256(signer.PublicKey()))
				if err := checkListen(cfg.SSH.Addr); err != nil {
					return fmt.Errorf("doctor ssh listen: %w", err)
				}
				logger.Info("doctor ssh listen ok", "addr", cfg.SSH.Addr)
			}
			if cfg.HTTP.Enabled {
				if err := checkListen(cfg.HTTP.Addr); err != nil {
					return fmt.Errorf("doctor http listen: %w", err)
				}
				logger.Info("doctor http listen ok", "addr", cfg.HTTP.Addr)
			}

			if err := runConsoleCheck(cmd.Context(), logger, consoleCfg, consoleTimeout); err != nil {
				return err
			}
			logger.Info("doctor console ok")
			logger.Info("doctor complete")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().DurationVar(&consoleTimeout, "console-timeout", 10*time.Second, "timeout for the console smoke check")
	return cmd
}

func checkStateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("state_dir is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, "doctor-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

func checkListen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}

// runConsoleCheck spins up a throwaway console service with a fast producer
// and walks it through a full minimize/restore/exit cycle, the same path a
// real session takes.
func runConsoleCheck(ctx context.Context, logger pslog.Logger, base schema.ConsoleConfig, timeout time.Duration) error {
	cfg := base
	cfg.ProducerInterval = 25 * time.Millisecond
	svc, err := core.NewService(cfg, core.ConsoleDeps{Logger: logger})
	if err != nil {
		return fmt.Errorf("doctor console service: %w", err)
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	done := make(chan error, 1)
	go func() { done <- svc.Run(runCtx) }()

	if err := waitFor(runCtx, func() bool {
		resp, err := svc.GetTranscript(runCtx, schema.GetTranscriptRequest{})
		return err == nil && resp.Buffer.Length > 0
	}); err != nil {
		return fmt.Errorf("doctor console: producer never appended: %w", err)
	}
	logger.Info("doctor console producer ok")

	steps := []struct {
		event schema.ConsoleEvent
		want  schema.TrayVisibility
	}{
		{schema.MinimizeRequested{}, schema.VisibilityMinimized},
		{schema.RestoreRequested{}, schema.VisibilityVisible},
		{schema.ExitRequested{}, schema.VisibilityExiting},
	}
	for _, step := range steps {
		if _, err := svc.PostEvent(runCtx, schema.PostEventRequest{Event: step.event}); err != nil {
			return fmt.Errorf("doctor console: post %s: %w", step.event.Kind(), err)
		}
		if err := waitFor(runCtx, func() bool {
			resp, err := svc.GetStatus(runCtx, schema.GetStatusRequest{})
			return err == nil && resp.Console.Visibility == step.want
		}); err != nil {
			return fmt.Errorf("doctor console: %s never reached: %w", step.want, err)
		}
		logger.Info("doctor console transition ok", "event", step.event.Kind(), "visibility", step.want)
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("doctor console: run: %w", err)
		}
	case <-runCtx.Done():
		return fmt.Errorf("doctor console: shutdown never completed: %w", runCtx.Err())
	}
	status, err := svc.GetStatus(ctx, schema.GetStatusRequest{})
	if err != nil {
		return fmt.Errorf("doctor console: final status: %w", err)
	}
	if status.Console.Run != schema.RunStopped {
		return fmt.Errorf("doctor console: producer state %s after exit", status.Console.Run)
	}
	return nil
}

func waitFor(ctx context.Context, cond func() bool) error {
	for {
		if cond() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
