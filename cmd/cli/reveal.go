package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"neutrino/internal/search"
)

// revealCommand builds the platform command that shows path in the file
// manager.
func revealCommand(goos, path string) *exec.Cmd {
	switch goos {
	case "windows":
		cmdPath := os.Getenv("COMSPEC")
		if cmdPath == "" {
			cmdPath = `C:\Windows\System32\cmd.exe`
		}
		return exec.Command(cmdPath, "/c", "start", "explorer.exe", "/select,", strings.ReplaceAll(path, "/", "\\"))
	case "darwin":
		return exec.Command("open", "-R", path)
	default: // Linux and other Unix-like systems
		return exec.Command("xdg-open", filepath.Dir(path))
	}
}

// revealInFileManager opens the directory holding path and selects the file
// where the platform supports it.
func revealInFileManager(path string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to get file path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("file no longer exists or inaccessible: %w", err)
	}
	if err := revealCommand(runtime.GOOS, absPath).Run(); err != nil {
		search.LogError("Failed to open file manager: %v", err)
		return fmt.Errorf("failed to open file manager: %w", err)
	}
	return nil
}
