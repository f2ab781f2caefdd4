package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrTemplateExists = errors.New("template already exists")
	ErrNoTemplateDir  = errors.New("no app or project level template dir found")
)

// Bootstrap copies the active default template for suffix (e.g. "_list") to
// <dir>/<appLabel>/<modelName><suffix>.html so it can be customised. The target is
// appDir/templates when that directory exists, else the engine's first directory.
// It returns the path written.
func Bootstrap(e *Engine, appDir, appLabel, modelName, suffix string) (string, error) {
	name := fmt.Sprintf("%s/%s%s.html", appLabel, strings.ToLower(modelName), suffix)
	if e.Exists(name) {
		return "", fmt.Errorf("%s: %w", name, ErrTemplateExists)
	}

	src, err := e.Source(fmt.Sprintf("crudview/object%s.html", suffix))
	if err != nil {
		return "", err
	}

	dir, err := targetDir(e, appDir)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create template dir: %w", err)
	}
	if err := os.WriteFile(target, src, 0o644); err != nil {
		return "", fmt.Errorf("write template: %w", err)
	}
	return target, nil
}

func targetDir(e *Engine, appDir string) (string, error) {
	if appDir != "" {
		dir := filepath.Join(appDir, "templates")
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir, nil
		}
	}
	if dirs := e.Dirs(); len(dirs) > 0 {
		return dirs[0], nil
	}
	return "", ErrNoTemplateDir
}
