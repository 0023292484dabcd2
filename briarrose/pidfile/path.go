package pidfile

import (
	"os"
	"os/user"
	"path/filepath"
)

// BaseName is the pidfile name used by the default paths.
const BaseName = "briar_rose.pid"

// DefaultPath returns the default pidfile path. Order of precedence (first
// wins):
//
//  1. $XDG_RUNTIME_DIR/briar_rose.pid
//  2. <tmp>/briar_rose-<username>.pid
//  3. <tmp>/briar_rose.pid
func DefaultPath() string {
	return defaultPath(os.Getenv, currentUsername)
}

func defaultPath(getenv func(string) string, username func() string) string {
	if dir := getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, BaseName)
	}

	if name := username(); name != "" {
		return filepath.Join(os.TempDir(), "briar_rose-"+name+".pid")
	}

	return filepath.Join(os.TempDir(), BaseName)
}

func currentUsername() string {
	u, err := user.Current()
	if err != nil || u == nil {
		return ""
	}
	return u.Username
}
