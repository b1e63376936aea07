//go:build !unix

package proc

import "os/exec"

// Detach is a no-op where process groups are unavailable.
func Detach(*exec.Cmd) {}
