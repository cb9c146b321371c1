package build

import (
	"fmt"
	"path/filepath"

	"github.com/ThandieOps/muda/internal/host"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/ThandieOps/muda/internal/resolver"
)

// LocalFile is the configuration file looked up in every directory
const LocalFile = "build.muda"

// UserConfigPath is the user-wide configuration used when the root
// directory has no build.muda. Empty when the host has no config directory.
func UserConfigPath(h *host.Host) string {
	if h.ConfigDir == "" {
		return ""
	}
	return filepath.Join(h.ConfigDir, "muda", "config.muda")
}

// discover finds the configuration of the working directory: its own
// build.muda, else the inherited entry, else (root only) the user-wide
// file. It returns nil without error when none exists.
func (b *Builder) discover(inherited *model.Entry, dirName string, root bool) (*model.Collection, error) {
	if b.Host.Exists(LocalFile) == host.PathFile {
		return b.parseFile(LocalFile, dirName)
	}

	if inherited != nil {
		b.Log.Debug("using parent configuration", "directory", b.Host.Getwd(), "name", inherited.Name)
		configs := model.NewCollection()
		configs.Add(inherited)
		return configs, nil
	}

	if !root {
		return nil, nil
	}
	if p := UserConfigPath(b.Host); p != "" && b.Host.Exists(p) == host.PathFile {
		return b.parseFile(p, dirName)
	}
	return nil, nil
}

func (b *Builder) parseFile(path, dirName string) (*model.Collection, error) {
	b.Log.Info("found muda configuration file", "path", b.Host.Abs(path))

	data, err := ReadConfig(b.Host, path)
	if err != nil {
		return nil, err
	}

	ctx := &resolver.Context{
		Log:      b.Log,
		OS:       b.Host.OS,
		Compiler: b.toolchain.Compiler,
		Hook:     b.Hook,
	}
	configs, err := resolver.Parse(ctx, resolver.Source{Path: b.Host.Abs(path), DirName: dirName, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return configs, nil
}

// ReadConfig reads a configuration file, rejecting empty files and files
// over MaxFileSize.
func ReadConfig(h *host.Host, path string) ([]byte, error) {
	info, err := h.Stat(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	if info.Size() > MaxFileSize {
		return nil, &FileError{Path: path, Err: ErrFileTooLarge}
	}
	if info.Size() == 0 {
		return nil, &FileError{Path: path, Err: ErrEmptyFile}
	}

	data, err := h.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	return data, nil
}

// Resolve parses the configuration of the working directory for the
// selected toolchain without building anything. When no toolchain is found
// the forced compiler, if any, is used for section filtering.
func (b *Builder) Resolve() (*model.Collection, error) {
	tc, err := b.Toolchain()
	if err != nil {
		b.Log.Debug("resolving without a detected compiler", "error", err)
		tc.Compiler = b.Options.Compiler
	}
	b.toolchain = tc

	dirName := filepath.Base(b.Host.Getwd())
	configs, err := b.discover(nil, dirName, true)
	if err != nil {
		return nil, err
	}
	if configs == nil {
		return nil, ErrNoConfiguration
	}
	return configs, nil
}
