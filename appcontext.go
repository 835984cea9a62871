package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/holoplot/go-evdev"
	"github.com/mcnull/keytrack/keystate"
)

// ----------------------------------------------------------------------

type AppContext struct {
	Args []string

	Interactive  bool
	ConfigPath   string
	Config       Config
	KeyboardPath string

	Keyboard *evdev.InputDevice

	// ProbeKeyboard is a second handle on the keyboard for key state
	// ioctls, which would put Keyboard back into blocking mode.
	ProbeKeyboard *evdev.InputDevice

	KeyboardEvents chan *evdev.InputEvent
	Errors         chan error

	Cancel  context.CancelFunc
	Context context.Context

	Logger    *slog.Logger
	Tracker   *keystate.Tracker
	Processor *keyProcessor

	wg sync.WaitGroup
}

// ----------------------------------------------------------------------

func (appCtx *AppContext) Dispose() {

	if appCtx.Cancel != nil {
		appCtx.Cancel()
	}

	// closing the keyboard unblocks the listener
	devices := []*evdev.InputDevice{
		appCtx.Keyboard,
		appCtx.ProbeKeyboard,
	}

	for _, device := range devices {
		if device != nil {
			appCtx.logger().Info("[app] closing device", "path", device.Path())

			if err := device.Close(); err != nil {
				appCtx.logger().Warn("[app] closing device failed", "path", device.Path(), "error", err)
			}
		}
	}

	appCtx.wg.Wait()
}

// ----------------------------------------------------------------------

func (appCtx *AppContext) logger() *slog.Logger {
	if appCtx.Logger == nil {
		return slog.Default()
	}
	return appCtx.Logger
}

// ----------------------------------------------------------------------

func (appCtx *AppContext) parseArgs() error {

	flags := flag.NewFlagSet("keytrack", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	flags.BoolVar(&appCtx.Interactive, "i", false, "select the keyboard device interactively")
	flags.BoolVar(&appCtx.Interactive, "interactive", false, "select the keyboard device interactively")
	flags.StringVar(&appCtx.ConfigPath, "c", DefaultConfigPath(), "config file path")
	flags.StringVar(&appCtx.ConfigPath, "config", DefaultConfigPath(), "config file path")

	var args []string

	if len(appCtx.Args) > 0 {
		args = appCtx.Args[1:]
	}

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parse arguments: %w", err)
	}

	return nil
}

// ----------------------------------------------------------------------

func (appCtx *AppContext) loadConfig() error {

	cfg, err := LoadConfig(appCtx.ConfigPath)

	if err != nil {
		return err
	}

	level, err := cfg.logLevel()

	if err != nil {
		return err
	}

	appCtx.Config = cfg
	appCtx.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(appCtx.Logger)

	return nil
}

// ----------------------------------------------------------------------

func (appCtx *AppContext) selectPaths() error {

	if appCtx.Interactive {
		var err error
		appCtx.KeyboardPath, err = selectDevice(os.Stdin, os.Stdout, "Select a KEYBOARD device:")
		return err
	}

	appCtx.KeyboardPath = appCtx.Config.Keyboard

	if appCtx.KeyboardPath == "" {
		return fmt.Errorf("no keyboard configured: set %s, keyboard in %s, or pass -i", keyboardEnvVar, appCtx.ConfigPath)
	}

	return nil
}

// ----------------------------------------------------------------------

func (appCtx *AppContext) openDevices() error {

	var err error

	appCtx.logger().Info("[app] opening keyboard", "path", appCtx.KeyboardPath)

	appCtx.Keyboard, err = evdev.Open(appCtx.KeyboardPath)

	if err != nil {
		return fmt.Errorf("open %s: %w", appCtx.KeyboardPath, err)
	}

	appCtx.ProbeKeyboard, err = evdev.Open(appCtx.KeyboardPath)

	if err != nil {
		return fmt.Errorf("open %s for key state: %w", appCtx.KeyboardPath, err)
	}

	name, err := appCtx.Keyboard.Name()

	if err != nil {
		appCtx.logger().Warn("[app] reading device name failed", "error", err)
	} else {
		appCtx.logger().Info("[app] keyboard opened", "name", name)
	}

	return nil
}

// ----------------------------------------------------------------------

func (appCtx *AppContext) createTracker() error {

	exit, err := appCtx.Config.exitCombo()

	if err != nil {
		return err
	}

	combos, err := appCtx.Config.watchedCombos()

	if err != nil {
		return err
	}

	opts := []keystate.Option{keystate.WithLogger(appCtx.logger())}

	if appCtx.Config.LegacyKeyUpProbe {
		opts = append(opts, keystate.WithKeyUpProbe(keystate.KeyUpProbeLegacy))
	}

	probe := keystate.NewEvdevProber(appCtx.ProbeKeyboard, appCtx.logger())
	appCtx.Tracker = keystate.NewTracker(probe, opts...)

	appCtx.Processor = &keyProcessor{
		tracker:  appCtx.Tracker,
		logger:   appCtx.logger(),
		conflate: appCtx.Config.ConflateModifiers,
		combos:   combos,
		exit:     exit,
	}

	appCtx.logger().Info("[app] tracking keys",
		"conflate_modifiers", appCtx.Config.ConflateModifiers,
		"legacy_key_up_probe", appCtx.Config.LegacyKeyUpProbe,
		"combos", len(combos),
		"exit", exit)

	return nil
}

// ----------------------------------------------------------------------

func (appCtx *AppContext) initialize() error {

	appCtx.Args = os.Args

	err := whileNoError(
		appCtx.parseArgs,
		appCtx.loadConfig,
		appCtx.selectPaths,
		appCtx.openDevices,
		appCtx.createTracker,
	)

	if err != nil {
		return err
	}

	appCtx.KeyboardEvents = make(chan *evdev.InputEvent)
	appCtx.Errors = make(chan error, 1)

	appCtx.Context, appCtx.Cancel = context.WithCancel(context.Background())
	appCtx.wg.Add(1)

	return nil
}

// ----------------------------------------------------------------------
