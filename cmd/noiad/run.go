package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noiawl/frontend/internal/config"
	"github.com/noiawl/frontend/internal/coordinator"
	"github.com/noiawl/frontend/internal/engine"
	"github.com/noiawl/frontend/internal/logging"
	"github.com/noiawl/frontend/internal/readiness"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bind the Wayland socket and serve client connections",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("socket", "", "Wayland socket name (default wayland-0)")
	runCmd.Flags().String("runtime-dir", "", "override XDG_RUNTIME_DIR")
	runCmd.Flags().Bool("watchdog", false, "enable the event-loop watchdog timer")
	runCmd.Flags().String("log-level", "", "debug, info, warn, error")

	v := viper.GetViper()
	_ = v.BindPFlag("socket.name", runCmd.Flags().Lookup("socket"))
	_ = v.BindPFlag("socket.runtime_dir", runCmd.Flags().Lookup("runtime-dir"))
	_ = v.BindPFlag("watchdog.enabled", runCmd.Flags().Lookup("watchdog"))
	_ = v.BindPFlag("log.level", runCmd.Flags().Lookup("log-level"))
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ready := readiness.New(cfg.Readiness.Enabled, logger)
	defer ready.Close()

	eng := engine.New(engine.Config{
		SocketName:     cfg.Socket.Name,
		RuntimeDir:     cfg.Socket.RuntimeDir,
		Watchdog:       cfg.Watchdog.Enabled,
		WatchdogPeriod: cfg.Watchdog.Period,
		KeyRepeatRate:  cfg.Keyboard.RepeatRate,
		KeyRepeatDelay: cfg.Keyboard.RepeatDelay,
		XkbRules:       cfg.Keyboard.XkbRules,
		XkbModel:       cfg.Keyboard.XkbModel,
		XkbLayout:      cfg.Keyboard.XkbLayout,
	}, coordinator.NewFake(), logger)

	if err := eng.Listen(); err != nil {
		return err
	}
	eng.Start()
	logger.Info("listening", "socket", cfg.Socket.Name, "runtime_dir", cfg.Socket.RuntimeDir)
	ready.Ready()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	ready.Stopping()
	eng.Stop()
	return nil
}
