package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the project configuration file name.
const ManifestName = "aggsynth.toml"

// Config is the content of aggsynth.toml.
type Config struct {
	Synth SynthConfig `toml:"synth"`
	Log   LogConfig   `toml:"log"`
	Trace TraceConfig `toml:"trace"`
}

type SynthConfig struct {
	// Jobs bounds parallel synthesis; 0 means GOMAXPROCS.
	Jobs           int    `toml:"jobs"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	Cache          bool   `toml:"cache"`
	CacheDir       string `toml:"cache_dir"`
	// Inputs lists declaration files relative to the project root, used
	// when no files are given on the command line.
	Inputs []string `toml:"inputs"`
}

type LogConfig struct {
	Level string `toml:"level"` // none, normal, debug
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Manifest is a loaded aggsynth.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Default returns the configuration used when no manifest exists.
func Default() Config {
	return Config{
		Synth: SynthConfig{
			Jobs:           runtime.GOMAXPROCS(0),
			MaxDiagnostics: 100,
			Cache:          true,
		},
		Log:   LogConfig{Level: "normal"},
		Trace: TraceConfig{Level: "off"},
	}
}

var logLevels = map[string]bool{"none": true, "normal": true, "debug": true}

// LoadConfig decodes path over the defaults and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("synth", "jobs") && cfg.Synth.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [synth].jobs must not be negative", path)
	}
	if cfg.Synth.Jobs == 0 {
		cfg.Synth.Jobs = runtime.GOMAXPROCS(0)
	}
	if cfg.Synth.MaxDiagnostics <= 0 {
		return Config{}, fmt.Errorf("%s: [synth].max_diagnostics must be positive", path)
	}
	if !logLevels[cfg.Log.Level] {
		return Config{}, fmt.Errorf("%s: [log].level must be none, normal or debug", path)
	}
	return cfg, nil
}

// locateManifest returns the nearest aggsynth.toml at or above dir. The
// search does not leave the enclosing repository: a directory holding .git
// is the last one checked. The empty path means no manifest.
func locateManifest(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", dir, err)
	}
	for {
		switch found, err := exists(filepath.Join(dir, ManifestName)); {
		case err != nil:
			return "", err
		case found:
			return filepath.Join(dir, ManifestName), nil
		}
		if atRepo, err := exists(filepath.Join(dir, ".git")); err != nil || atRepo {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %q: %w", path, err)
}

// Load finds and loads the manifest above startDir. ok is false when no
// manifest exists; the returned manifest then carries the defaults.
func Load(startDir string) (*Manifest, bool, error) {
	path, err := locateManifest(startDir)
	if err != nil {
		return nil, false, err
	}
	if path == "" {
		return &Manifest{Config: Default()}, false, nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	m := &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}
	if m.Config.Synth.CacheDir != "" && !filepath.IsAbs(m.Config.Synth.CacheDir) {
		m.Config.Synth.CacheDir = filepath.Join(m.Root, m.Config.Synth.CacheDir)
	}
	return m, true, nil
}

// InputPaths resolves [synth].inputs against the project root.
func (m *Manifest) InputPaths() []string {
	out := make([]string, 0, len(m.Config.Synth.Inputs))
	for _, in := range m.Config.Synth.Inputs {
		p := filepath.FromSlash(in)
		if !filepath.IsAbs(p) && m.Root != "" {
			p = filepath.Join(m.Root, p)
		}
		out = append(out, p)
	}
	return out
}
