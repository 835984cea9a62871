package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/holoplot/go-evdev"
)

// ----------------------------------------------------------------------

func whileNoError(funcs ...func() error) error {

	for _, f := range funcs {
		err := f()

		if err != nil {
			return err
		}
	}

	return nil
}

// ----------------------------------------------------------------------

func selectDevice(in io.Reader, out io.Writer, header string) (string, error) {

	paths, err := evdev.ListDevicePaths()

	if err != nil {
		return "", err
	}

	return pickDevice(in, out, header, paths)
}

// ----------------------------------------------------------------------

// pickDevice lists paths, keyboards first, and reads the chosen index.
func pickDevice(in io.Reader, out io.Writer, header string, paths []evdev.InputPath) (string, error) {

	fmt.Fprintln(out, header)
	fmt.Fprintln(out)

	if len(paths) == 0 {
		return "", fmt.Errorf("no input devices found")
	}

	ordered := make([]evdev.InputPath, 0, len(paths))

	for _, path := range paths {
		if looksLikeKeyboard(path.Name) {
			ordered = append(ordered, path)
		}
	}

	for _, path := range paths {
		if !looksLikeKeyboard(path.Name) {
			ordered = append(ordered, path)
		}
	}

	for i, path := range ordered {
		fmt.Fprintf(out, "%d: %s: %s\n", i, path.Name, path.Path)
	}

	fmt.Fprintf(out, "Select a device: [0-%d]: ", len(ordered)-1)

	var i int

	if _, err := fmt.Fscanf(in, "%d", &i); err != nil {
		return "", fmt.Errorf("invalid selection: %w", err)
	}

	if i < 0 || i >= len(ordered) {
		return "", fmt.Errorf("invalid selection")
	}

	return ordered[i].Path, nil
}

func looksLikeKeyboard(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "keyboard") || strings.Contains(name, "kbd")
}

// ----------------------------------------------------------------------
