package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.design/x/hotkey/mainthread"

	"github.com/petems/hotkey-tray/hotkey"
	"github.com/petems/hotkey-tray/internal/action"
	"github.com/petems/hotkey-tray/internal/app"
	"github.com/petems/hotkey-tray/internal/audio"
	"github.com/petems/hotkey-tray/internal/config"
	"github.com/petems/hotkey-tray/internal/logging"
	"github.com/petems/hotkey-tray/internal/msgloop"
	"github.com/petems/hotkey-tray/internal/notify"
	"github.com/petems/hotkey-tray/internal/permissions"
	"github.com/petems/hotkey-tray/internal/platform"
	"github.com/petems/hotkey-tray/internal/tray"
	"github.com/petems/hotkey-tray/internal/tui"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

const shutdownTimeout = 5 * time.Second

// frontend is the tray menu or the terminal monitor.
type frontend interface {
	app.Observer
	Quit()
}

func main() {
	configFlag := flag.String("config", "", "Config file path (default: OS-specific location)")
	tuiFlag := flag.Bool("tui", false, "Run with terminal UI instead of the tray icon")
	logLevelFlag := flag.String("log-level", "", "Log level, overrides the config file (trace, debug, info, warn, error)")
	listAudioFlag := flag.Bool("list-audio", false, "List audio output devices and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("hotkey-tray %s (%s)\n", Version, Commit)
		os.Exit(0)
	}

	if *listAudioFlag {
		os.Exit(listAudio())
	}

	// Load config from XDG/Library/AppData
	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// First run: write the defaults so there is a file to edit and watch.
	if _, err := os.Stat(cfg.Path()); errors.Is(err, os.ErrNotExist) {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not write default config: %v\n", err)
		}
	}

	level := cfg.LogLevel
	if *logLevelFlag != "" {
		level = *logLevelFlag
	}
	// The TUI owns the terminal, so it only logs to the file.
	log, logCloser, err := logging.New(logging.Options{Level: level, Quiet: *tuiFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, *tuiFlag, log)
	if err != nil {
		log.Error().Err(err).Msg("Exiting")
	}
	logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, useTUI bool, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		log.Warn().Err(err).Msg("Config has invalid bindings")
	}
	for _, c := range cfg.Conflicts() {
		log.Warn().Str("conflict", c).Msg("Duplicate hotkey in config")
	}

	// macOS requires accessibility approval before hotkeys and key sending work
	if err := permissions.EnsurePermissions(); err != nil {
		log.Warn().Err(err).Msg("Hotkeys may not work")
	}

	loop := msgloop.New(log)
	if err := loop.Start(); err != nil {
		return fmt.Errorf("start message loop: %w", err)
	}
	defer loop.Stop()

	backend, err := platform.New(loop.Sink, log)
	if err != nil {
		return fmt.Errorf("init hotkey backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn().Err(err).Msg("Hotkey backend close error")
		}
	}()
	log.Info().Str("backend", backend.Name()).Msg("Hotkey backend ready")

	registry := hotkey.New(backend, loop, hotkey.WithLogger(log))
	notifier := notify.New(cfg.Notifications, log)

	player, err := audio.New("")
	if err != nil {
		log.Warn().Err(err).Msg("Audio unavailable, beeps are silent")
		player = audio.Nop{}
	}
	defer player.Close()

	actions := action.NewFactory(action.Deps{
		Notifier: notifier,
		Beeper:   player,
		Logger:   log,
	})

	application := app.New(app.Config{
		Registry: registry,
		UI:       loop,
		Actions:  actions,
		Notifier: notifier,
		Player:   player,
		Config:   cfg,
		Logger:   log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ui frontend
	if useTUI {
		ui = tui.New(application, Version, log)
	} else {
		ui = tray.New(application, Version, Commit, log)
	}
	application.AddObserver(ui)

	// start runs once the platform event loop is up; on macOS hotkey
	// registration is serviced by it.
	start := func() error {
		if err := application.Start(); err != nil {
			return fmt.Errorf("start hotkeys: %w", err)
		}
		log.Info().Str("config", cfg.Path()).Msg("Hotkey Tray starting...")
		watchConfig(ctx, cfg.Path(), application, notifier, log)
		return nil
	}

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Shutting down...")
			ui.Quit()
		case <-ctx.Done():
		}
	}()

	// The UI must run on the main thread. systray runs the platform event
	// loop itself; the TUI runs under x/hotkey's main-thread loop.
	var uiErr error
	switch u := ui.(type) {
	case *tui.UI:
		mainthread.Init(func() {
			if uiErr = start(); uiErr != nil {
				return
			}
			uiErr = u.Run()
		})
	case *tray.UI:
		startErr := make(chan error, 1)
		u.Run(func() {
			if err := start(); err != nil {
				startErr <- err
				u.Quit()
			}
		}, func() { log.Debug().Msg("Tray exited") })
		select {
		case uiErr = <-startErr:
		default:
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
	return uiErr
}

// watchConfig applies config file edits as they happen.
func watchConfig(ctx context.Context, path string, application *app.App, notifier *notify.Notifier, log zerolog.Logger) {
	err := config.Watch(ctx, path, func(next *config.Config, err error) {
		if err != nil {
			log.Error().Err(err).Msg("Config reload failed")
			notifier.Error("Config reload failed", err.Error())
			return
		}
		log.Info().Msg("Config changed, applying")
		if err := application.Apply(next); err != nil {
			log.Error().Err(err).Msg("Failed to apply config")
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("Config watcher disabled")
	}
}

func listAudio() int {
	player, err := audio.New("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer player.Close()

	devices, err := audio.ListOutputDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Printf("%s %s\t%s\n", marker, d.ID, d.Name)
	}
	return 0
}
