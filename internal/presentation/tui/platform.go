package tui

import (
	"errors"
	"os/exec"
	"runtime"
)

// OSOpenCmd allows mocking the open command.
var OSOpenCmd = func(path string) *exec.Cmd {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "linux":
		cmd = "xdg-open"
		args = []string{path}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", path}
	case "darwin":
		cmd = "open"
		args = []string{path}
	default:
		return nil
	}
	return exec.Command(cmd, args...) //nolint:gosec
}

// openFile hands a recorded clip to the desktop's default player.
func openFile(path string) error {
	cmd := OSOpenCmd(path)
	if cmd == nil {
		return errors.New("unsupported platform")
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
