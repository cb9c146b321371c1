package plugin

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ThandieOps/muda/internal/version"
)

// DefaultPath is where a plugin is looked up relative to the root build
// directory. The .muda directory is never treated as a build directory.
func DefaultPath() string {
	name := "plugin"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(".muda", name)
}

// response is one line written by the plugin for every request
type response struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// Process is a hook backed by a child process. Each event is written to its
// stdin as one JSON line; the child answers with one JSON line on stdout.
type Process struct {
	path  string
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *bufio.Scanner
}

// Start launches the plugin executable at path
func Start(path string, args ...string) (*Process, error) {
	cmd := exec.Command(path, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("plugin stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("plugin stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start plugin %s: %w", path, err)
	}

	out := bufio.NewScanner(stdout)
	out.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Process{path: path, cmd: cmd, stdin: stdin, out: out}, nil
}

func (p *Process) call(ev Event) (*response, error) {
	line, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", ev.Kind, err)
	}
	line = append(line, '\n')
	if _, err := p.stdin.Write(line); err != nil {
		return nil, fmt.Errorf("failed to send %s event: %w", ev.Kind, err)
	}
	if !p.out.Scan() {
		if err := p.out.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s reply: %w", ev.Kind, err)
		}
		return nil, fmt.Errorf("plugin closed its output during %s event", ev.Kind)
	}
	var resp response
	if err := json.Unmarshal(p.out.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("malformed %s reply: %w", ev.Kind, err)
	}
	return &resp, nil
}

func (p *Process) status(ev Event) error {
	resp, err := p.call(ev)
	if err != nil {
		return err
	}
	if resp.Status != 0 {
		if resp.Message != "" {
			return fmt.Errorf("%w: %s", ErrUnhandled, resp.Message)
		}
		return ErrUnhandled
	}
	return nil
}

func (p *Process) OnDetect(d *Detection) error {
	resp, err := p.call(Event{Kind: EventDetection, Detection: d})
	if err != nil {
		return err
	}
	if resp.Status != 0 {
		return fmt.Errorf("%w: detection refused: %s", ErrUnhandled, resp.Message)
	}
	d.Name = resp.Name
	d.Version = resp.Version
	return nil
}

func (p *Process) OnUnhandledProperty(e *ParseEvent) error {
	return p.status(Event{Kind: EventParseUnhandledProperty, Parse: e})
}

func (p *Process) OnPrebuild(e *BuildEvent) error {
	return p.status(Event{Kind: EventPrebuild, Build: e})
}

func (p *Process) OnPostbuild(e *BuildEvent) error {
	return p.status(Event{Kind: EventPostbuild, Build: e})
}

// OnDestroy delivers the destroy event and waits for the child to exit
func (p *Process) OnDestroy() error {
	err := p.status(Event{Kind: EventDestroy})
	if cerr := p.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close ends the child process without sending an event
func (p *Process) Close() error {
	_ = p.stdin.Close()
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("plugin %s: %w", p.path, err)
	}
	return nil
}

// Load attaches the plugin at path. Any problem (missing file, start
// failure, refused detection, unsupported version) is logged and yields the
// Null hook.
func Load(path string, cl CommandLine, log *slog.Logger) Hook {
	if path == "" {
		return Null{}
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		log.Debug("no plugin found", "path", path)
		return Null{}
	}

	p, err := Start(path)
	if err != nil {
		log.Warn("plugin detected but could not be loaded", "path", path, "error", err)
		return Null{}
	}
	return negotiate(p, cl, log)
}

// negotiate runs detection on a started plugin and checks its version
func negotiate(p *Process, cl CommandLine, log *slog.Logger) Hook {
	path := p.path
	d := &Detection{CommandLine: cl}
	if err := p.OnDetect(d); err != nil {
		log.Info("loading of plugin failed", "path", path, "error", err)
		_ = p.Close()
		return Null{}
	}

	if !version.InRange(d.Version, version.PluginMinSupported, version.Current) {
		log.Warn("plugin detected but not supported",
			"plugin_version", d.Version,
			"min_supported", version.PluginMinSupported,
			"current", version.Current)
		_ = p.Close()
		return Null{}
	}

	log.Info("plugin detected", "name", d.Name, "version", d.Version)
	return p
}
