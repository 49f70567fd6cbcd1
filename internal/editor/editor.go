package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

func editorCmd() string {
	for _, key := range []string{"DOCSYNC_EDITOR", "EDITOR", "VISUAL"} {
		if e := strings.TrimSpace(os.Getenv(key)); e != "" {
			return e
		}
	}
	return "vi"
}

// Open runs the user's editor on path and waits for it to exit. The editor
// setting may carry arguments, e.g. "code --wait".
func Open(path string) error {
	fields := strings.Fields(editorCmd())
	cmd := exec.Command(fields[0], append(fields[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q: %w", fields[0], err)
	}
	return nil
}
