package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/holoplot/go-evdev"
)

// ----------------------------------------------------------------------

func startListener(appCtx *AppContext, device *evdev.InputDevice, events chan *evdev.InputEvent) {

	defer appCtx.wg.Done()

	// reads park on the runtime poller and fail once the device is closed
	if err := device.NonBlock(); err != nil {
		appCtx.Errors <- err
		return
	}

	for {
		event, err := device.ReadOne()

		if appCtx.Context.Err() != nil {
			return
		}

		if err != nil {
			appCtx.Errors <- err
			return
		}

		if event == nil {
			continue
		}

		select {
		case events <- event:
		case <-appCtx.Context.Done():
			return
		}
	}
}

// ----------------------------------------------------------------------

func run(appCtx *AppContext) error {

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	appCtx.logger().Info("[app] starting listener")

	go startListener(appCtx, appCtx.Keyboard, appCtx.KeyboardEvents)

	for {
		select {
		case event := <-appCtx.KeyboardEvents:
			_, exit := appCtx.Processor.process(event)

			if exit {
				appCtx.logger().Info("[app] exit combo pressed", "keys", appCtx.Processor.exit)
				return nil
			}

		case sig := <-signals:
			appCtx.logger().Info("[app] received signal", "signal", sig)
			return nil

		case err := <-appCtx.Errors:
			return fmt.Errorf("read keyboard: %w", err)

		case <-appCtx.Context.Done():
			return nil
		}
	}
}

// ----------------------------------------------------------------------

func main() {

	appCtx := &AppContext{}

	err := appCtx.initialize()

	if err == nil {
		err = run(appCtx)
	}

	appCtx.Dispose()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
