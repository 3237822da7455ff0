package config

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the base directory.
const HomeEnv = "SIDEKICK_HOME"

// Paths are the on-disk locations Sidekick reads and writes.
type Paths struct {
	Base    string
	Config  string // config.yaml
	Env     string // .env loaded before config
	Logs    string
	Data    string
	FlowsDB string // sqlite flow store
}

// ResolvePaths lays out Paths under $SIDEKICK_HOME, or ~/.sidekick. A
// leading "~/" in SIDEKICK_HOME is expanded.
func ResolvePaths() (Paths, error) {
	base, err := baseDir()
	if err != nil {
		return Paths{}, err
	}
	return pathsUnder(base), nil
}

func baseDir() (string, error) {
	base := os.Getenv(HomeEnv)
	if base != "" && !strings.HasPrefix(base, "~/") {
		return base, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if base == "" {
		return filepath.Join(home, ".sidekick"), nil
	}
	return filepath.Join(home, base[2:]), nil
}

func pathsUnder(base string) Paths {
	data := filepath.Join(base, "data")
	return Paths{
		Base:    base,
		Config:  filepath.Join(base, "config.yaml"),
		Env:     filepath.Join(base, ".env"),
		Logs:    filepath.Join(base, "logs"),
		Data:    data,
		FlowsDB: filepath.Join(data, "flows.db"),
	}
}

// EnsureDirs creates the base, logs and data directories owner-only.
func (p Paths) EnsureDirs() error {
	for _, dir := range [...]string{p.Base, p.Logs, p.Data} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}
