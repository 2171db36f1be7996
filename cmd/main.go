package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"go.uber.org/zap"

	"timecard/internal/config"
	"timecard/internal/core/clock"
	"timecard/internal/core/controller"
	"timecard/internal/core/event"
	"timecard/internal/core/focus"
	"timecard/internal/core/session"
	"timecard/internal/logger"
	"timecard/internal/platform"
	"timecard/internal/storage/backup"
	"timecard/internal/storage/settings"
	"timecard/internal/storage/timelog"
	"timecard/internal/ui/mainwindow"
	"timecard/internal/ui/preferences"
	"timecard/internal/ui/tray"
	"timecard/resources"
)

const (
	appName = "timecard"
	appID   = "io.github.timecard"
)

func main() {
	os.Exit(run())
}

func run() int {
	dirs := platform.NewDirs(appName)
	configDir, err := dirs.ConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve config directory: %v\n", err)
		configDir = "."
	}

	configPath := flag.String("config", filepath.Join(configDir, "config.yaml"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	appLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	appLogger.Info("starting", zap.String("config", *configPath))

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(resources.MustIcon(resources.IconApp))

	store := settings.New(settings.Options{
		Path:          settingsPath(cfg, configDir),
		LegacyPaths:   dirs.LegacySettingsPaths(),
		DefaultLogDir: defaultLogDir(dirs, appLogger.Logger),
	}, appLogger.Named("settings"))
	if err := store.Load(false); err != nil {
		appLogger.Warn("settings not loaded, using defaults", zap.Error(err))
	}

	bus := event.NewBus(appLogger.Named("events"))
	clk := clock.New(clock.Config{TickInterval: cfg.Clock.TickInterval, Dispatch: fyne.Do})
	sess := session.New(clk, bus, session.Config{})
	timeLog := timelog.New(store, appLogger.Named("timelog"))
	ctrl := controller.New(sess, timeLog, bus, appLogger.Named("controller"), controller.Config{})

	scheduler := focus.New(store, ctrl, notifier{app: fyneApp}, appLogger.Named("focus"), focus.Config{})
	scheduler.Attach(bus)

	desktopApp, hasTray := fyneApp.(desktop.App)
	var display mainwindow.Display = store
	if !hasTray {
		appLogger.Warn("system tray unsupported on this platform, closing the window quits")
		display = noTrayDisplay{Store: store}
	}

	mainWin := mainwindow.New(fyneApp, ctrl, timeLog, display, appLogger.Named("ui"), mainwindow.Options{})
	mainWin.Attach(bus)

	prefsWindow := preferences.New(fyneApp, preferences.FromStore(store), func(updated preferences.Settings) error {
		result, err := updated.Apply(store)
		if result.LogPathChanged {
			if loadErr := timeLog.Load(true); loadErr != nil {
				err = errors.Join(err, loadErr)
			}
		}
		if result.FocusChanged {
			scheduler.Reload()
		}
		mainWin.Reload()
		return err
	})
	showPreferences := func() {
		prefsWindow.UpdateSettings(preferences.FromStore(store))
		prefsWindow.Show()
	}

	if hasTray {
		trayManager := tray.New(desktopApp, tray.Callbacks{
			OnShowHide: mainWin.ToggleVisible,
			OnToggle: func() {
				if err := ctrl.Toggle(); err != nil {
					appLogger.Debug("tray toggle ignored", zap.Error(err))
				}
			},
			OnPreferences: showPreferences,
			OnQuit:        fyneApp.Quit,
		})
		desktopApp.SetSystemTrayIcon(trayIcon(ctrl.State()))
		desktopApp.SetSystemTrayWindow(mainWin.Window())

		bus.Subscribe(event.TypeTick, func(e event.Event) {
			if tick, ok := e.(event.TickEvent); ok {
				trayManager.SetElapsed(tick.Elapsed)
			}
		})
		bus.Subscribe(event.TypeStateChanged, func(event.Event) {
			state := ctrl.State()
			trayManager.SetState(state)
			desktopApp.SetSystemTrayIcon(trayIcon(state))
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.Backup.Disabled {
		snapshots, err := startBackup(cfg, dirs, ctrl, clk, bus, appLogger.Named("backup"))
		if err != nil {
			appLogger.Warn("crash backup disabled", zap.Error(err))
		} else {
			defer snapshots.StopMonitoring()
			go recall(ctx, snapshots, ctrl, fyneApp, appLogger.Logger)
		}
	}

	clk.Start()
	defer clk.Stop()

	mainWin.Show()
	fyneApp.Run()

	appLogger.Info("stopped", zap.String("state", string(ctrl.State())))
	return 0
}

func settingsPath(cfg *config.Config, configDir string) string {
	if cfg.Settings.Path != "" {
		return cfg.Settings.Path
	}
	return filepath.Join(configDir, "settings.conf")
}

func defaultLogDir(dirs *platform.Dirs, log *zap.Logger) string {
	dataDir, err := dirs.DataDir()
	if err != nil {
		log.Warn("resolve data directory", zap.Error(err))
		return "."
	}
	return dataDir
}

func startBackup(cfg *config.Config, dirs *platform.Dirs, ctrl *controller.Controller, clk *clock.Clock, bus *event.Bus, log *zap.Logger) (*backup.Backup, error) {
	dir := cfg.Backup.Dir
	if dir == "" {
		cacheDir, err := dirs.CacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(cacheDir, "backups")
	}

	snapshots, err := backup.New(ctrl, log, backup.Config{Dir: dir, QueryDelay: cfg.Backup.QueryDelay})
	if err != nil {
		return nil, err
	}
	if err := snapshots.StartMonitoring(clk, bus); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func recall(ctx context.Context, snapshots *backup.Backup, ctrl *controller.Controller, fyneApp fyne.App, log *zap.Logger) {
	recovered, err := snapshots.CheckForRecall(ctx, uiRestorer{target: ctrl})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn("backup recall failed", zap.Error(err))
		}
		return
	}
	if recovered {
		fyne.Do(func() {
			fyneApp.SendNotification(fyne.NewNotification("Timecard", "An unsaved session was recovered. Save or reset it."))
		})
	}
}

// uiRestorer runs Recover on the UI goroutine and defers the backup while a
// session is already in progress.
type uiRestorer struct {
	target *controller.Controller
}

func (r uiRestorer) Recover(timestamp time.Time, elapsedMs int64, notes string) error {
	var err error
	fyne.DoAndWait(func() {
		err = r.target.Recover(timestamp, elapsedMs, notes)
	})
	if errors.Is(err, controller.ErrInvalidTransition) {
		return fmt.Errorf("%w: %w", backup.ErrBusy, err)
	}
	return err
}

type notifier struct {
	app fyne.App
}

func (n notifier) Notify(message string) {
	n.app.SendNotification(fyne.NewNotification("Timecard", message))
}

type noTrayDisplay struct {
	*settings.Store
}

func (noTrayDisplay) Persist() bool { return false }

func trayIcon(state controller.State) fyne.Resource {
	switch state {
	case controller.StateRunning:
		return resources.MustIcon(resources.IconRunning)
	case controller.StatePaused, controller.StatePromptingStop:
		return resources.MustIcon(resources.IconPaused)
	default:
		return resources.MustIcon(resources.IconApp)
	}
}
