package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/calvinalkan/mjoin/internal/config"
)

// globals carries what every command needs from the process: the global
// flags, the environment and stdin.
type globals struct {
	workDir    string
	configPath string
	env        map[string]string
	stdin      io.Reader
}

func (g *globals) loadConfig(overrides config.File) (config.Config, error) {
	return config.LoadConfig(config.LoadConfigInput{
		WorkDirOverride:   g.workDir,
		ConfigPath:        g.configPath,
		Overrides:         overrides,
		Env:               g.env,
		DefaultBufferSize: defaultBufferSize(),
	})
}

// openInput opens path for reading; "-" is stdin. The returned close
// function is always safe to call.
func (g *globals) openInput(workDir, path string) (io.Reader, func(), error) {
	if path == "-" {
		return g.stdin, func() {}, nil
	}

	f, err := os.Open(resolvePath(workDir, path))
	if err != nil {
		return nil, func() {}, fmt.Errorf("cannot open input: %w", err)
	}

	adviseSequential(f)

	return f, func() { _ = f.Close() }, nil
}

func resolvePath(workDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workDir, path)
}
