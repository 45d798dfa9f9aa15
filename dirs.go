package log

import (
	"os"
	"strings"
)

// tempDirEnv lists the environment variables consulted, in order, for a temp directory.
var tempDirEnv = []string{"TEST_TMPDIR", "TMPDIR", "TMP"}

// loggingDirectories returns the candidate directories for auto-named log files,
// each ending in "/". A configured log_dir is the only candidate. Otherwise the
// temp directory candidates are listed up to and including the first one that
// exists, followed by "./".
func loggingDirectories(cfg *Config) []string {
	if cfg.LogDir != "" {
		return []string{withSlash(cfg.LogDir)}
	}

	var dirs []string
	candidates := make([]string, 0, len(tempDirEnv)+1)
	for _, env := range tempDirEnv {
		candidates = append(candidates, os.Getenv(env))
	}
	candidates = append(candidates, "/tmp")

	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		dirs = append(dirs, withSlash(dir))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			break
		}
	}
	return append(dirs, "./")
}

func withSlash(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}
