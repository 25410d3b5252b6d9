// Package storage resolves the on-disk layout octobrain uses to keep one
// SQLite-backed memory store per project: a stable project identifier
// derived from the project's Git origin (or, failing that, its canonical
// path), and the base data directory conventions for macOS, Linux, and
// Windows.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Roots is the resolved set of directories a Store instance reads and
// writes. Constructors take an explicit Roots value rather than reaching
// for package-level state, per the "prefer passing an explicit StorageRoots
// record" design note: the environment (XDG_DATA_HOME, APPDATA) is read once
// by Resolve and never again.
type Roots struct {
	// Base is the system-wide octobrain data directory.
	Base string
	// ProjectID is the 16-hex-char identifier for the current project.
	ProjectID string
}

// BaseDir returns the system-wide octobrain data directory: %APPDATA% on
// Windows; on Linux, macOS and other Unix-likes, XDG_DATA_HOME if set and
// ~/.local/share otherwise.
func BaseDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("storage: APPDATA is not set")
		}
		return filepath.Join(appData, "octobrain"), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "octobrain"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("storage: resolving home directory: %w", err)
		}
		return filepath.Join(home, ".local", "share", "octobrain"), nil
	}
}

// Resolve computes the Roots for projectPath, creating the base directory
// if it doesn't exist yet.
func Resolve(projectPath string) (Roots, error) {
	base, err := BaseDir()
	if err != nil {
		return Roots{}, err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return Roots{}, fmt.Errorf("storage: creating base dir: %w", err)
	}
	id, err := ProjectIdentifier(projectPath)
	if err != nil {
		return Roots{}, err
	}
	return Roots{Base: base, ProjectID: id}, nil
}

// ConfigPath is the system-wide config.toml path.
func (r Roots) ConfigPath() string {
	return filepath.Join(r.Base, "config.toml")
}

// ProjectDir is the per-project directory, <base>/<project_id>.
func (r Roots) ProjectDir() string {
	return filepath.Join(r.Base, r.ProjectID)
}

// StorageDir is <base>/<project_id>/storage, holding the memories and
// memory_relationships table files.
func (r Roots) StorageDir() string {
	return filepath.Join(r.ProjectDir(), "storage")
}

// LogsDir is <base>/<project_id>/logs, holding daily-rotated logs when
// running as a server.
func (r Roots) LogsDir() string {
	return filepath.Join(r.ProjectDir(), "logs")
}

// EnsureDirs creates the project's storage and logs directories.
func (r Roots) EnsureDirs() error {
	if err := os.MkdirAll(r.StorageDir(), 0o755); err != nil {
		return fmt.Errorf("storage: creating storage dir: %w", err)
	}
	if err := os.MkdirAll(r.LogsDir(), 0o755); err != nil {
		return fmt.Errorf("storage: creating logs dir: %w", err)
	}
	return nil
}

// ProjectIdentifier derives the stable 16-hex-char project id: the SHA-256
// prefix of the normalized Git origin URL if projectPath is inside a Git
// repository with an "origin" remote, or of the canonicalized path
// otherwise.
func ProjectIdentifier(projectPath string) (string, error) {
	if remote, err := gitOriginURL(projectPath); err == nil && remote != "" {
		return hashPrefix(normalizeGitURL(remote)), nil
	}
	abs, err := canonicalize(projectPath)
	if err != nil {
		return "", err
	}
	return hashPrefix(abs), nil
}

func gitOriginURL(projectPath string) (string, error) {
	repo, err := git.PlainOpenWithOptions(projectPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return "", err
	}
	cfg := remote.Config()
	if len(cfg.URLs) == 0 || cfg.URLs[0] == "" {
		return "", fmt.Errorf("storage: origin remote has no URL")
	}
	return cfg.URLs[0], nil
}

// normalizeGitURL makes https://github.com/user/repo.git,
// git@github.com:user/repo.git, and ssh://git@github.com/user/repo.git all
// hash to the same project identifier.
func normalizeGitURL(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, ".git")

	if idx := strings.Index(url, "://"); idx >= 0 {
		rest := url[idx+3:]
		if at := strings.Index(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		return rest
	}

	if at := strings.Index(url, "@"); at >= 0 {
		rest := url[at+1:]
		if colon := strings.Index(rest, ":"); colon >= 0 {
			host := rest[:colon]
			path := rest[colon+1:]
			return host + "/" + path
		}
	}

	return url
}

func canonicalize(projectPath string) (string, error) {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return "", fmt.Errorf("storage: resolving absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	if filepath.IsAbs(projectPath) {
		return projectPath, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("storage: resolving cwd: %w", err)
	}
	return filepath.Join(cwd, projectPath), nil
}

func hashPrefix(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
