package adb

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// AutoDetect looks for adb on PATH, under the Android SDK roots and in the
// usual per-OS install locations. It returns "" when nothing is found.
func AutoDetect() string {
	exe := executableName()
	if p, err := exec.LookPath(exe); err == nil {
		return p
	}
	roots := []string{
		os.Getenv("ANDROID_SDK_ROOT"),
		os.Getenv("ANDROID_HOME"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		switch runtime.GOOS {
		case "darwin":
			roots = append(roots, filepath.Join(home, "Library", "Android", "sdk"))
		case "windows":
			roots = append(roots, filepath.Join(home, "AppData", "Local", "Android", "Sdk"))
		default:
			roots = append(roots,
				filepath.Join(home, "Android", "Sdk"),
				filepath.Join(home, "Android", "sdk"),
			)
		}
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		if cand := filepath.Join(root, "platform-tools", exe); fileExists(cand) {
			return cand
		}
	}
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{"/usr/local/bin/" + exe, "/opt/homebrew/bin/" + exe}
	case "linux":
		candidates = []string{"/usr/bin/" + exe, "/usr/local/bin/" + exe}
	case "windows":
		candidates = []string{filepath.Join(`C:\`, "Android", "platform-tools", exe)}
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	return ""
}

// ValidatePath checks a user-supplied adb location. A bare "adb" or
// "adb.exe" is resolved through PATH.
func ValidatePath(p string) (string, error) {
	if p == "" {
		return "", errors.New("empty path")
	}
	if fileExists(p) {
		return p, nil
	}
	if base := filepath.Base(p); base == p && (base == "adb" || base == "adb.exe") {
		if q, err := exec.LookPath(base); err == nil {
			return q, nil
		}
	}
	return "", ErrToolMissing
}

func executableName() string {
	if runtime.GOOS == "windows" {
		return "adb.exe"
	}
	return "adb"
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
