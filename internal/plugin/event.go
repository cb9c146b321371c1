package plugin

import (
	"fmt"
	"strings"

	"github.com/ThandieOps/muda/internal/model"
)

// EventKind identifies the lifecycle point an event is sent at
type EventKind int

const (
	EventDetection EventKind = iota
	EventParseUnhandledProperty
	EventPrebuild
	EventPostbuild
	EventDestroy
)

var eventNames = []string{"detection", "parse", "prebuild", "postbuild", "destroy"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	for i, name := range eventNames {
		if strings.EqualFold(name, string(b)) {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", b)
}

// Section is the OS/compiler filter active when a property was read
type Section struct {
	OS       model.OS       `json:"os"`
	Compiler model.Compiler `json:"compiler"`
}

// CommandLine describes how muda was invoked. It is handed to the plugin
// on detection.
type CommandLine struct {
	ForceCompiler      model.Compiler `json:"force_compiler"`
	ForceOptimization  bool           `json:"force_optimization"`
	DisplayCommandLine bool           `json:"display_command_line"`
	DisableLogs        bool           `json:"disable_logs"`
	Configurations     []string       `json:"configurations,omitempty"`
	LogFile            string         `json:"log_file,omitempty"`
}

// Detection is exchanged once when a plugin is loaded. The plugin fills
// in Name and Version.
type Detection struct {
	CommandLine CommandLine `json:"command_line"`

	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// ParseEvent carries a property the resolver did not recognize
type ParseEvent struct {
	Key        string   `json:"key"`
	Values     []string `json:"values"`
	Section    Section  `json:"section"`
	ConfigName string   `json:"config_name"`
	Directory  string   `json:"directory"`
}

// BuildEvent is sent before and after a project is compiled
type BuildEvent struct {
	Name           string `json:"name"`
	BuildDirectory string `json:"build_directory"`
	Build          string `json:"build"`
	Extension      string `json:"extension"`
	Directory      string `json:"directory"`
	Succeeded      bool   `json:"succeeded"`
	RootBuild      bool   `json:"root_build"`
}

// Event is the tagged union delivered to a hook. Exactly one payload
// matching Kind is set; Destroy carries none.
type Event struct {
	Kind      EventKind   `json:"kind"`
	Detection *Detection  `json:"detection,omitempty"`
	Parse     *ParseEvent `json:"parse,omitempty"`
	Build     *BuildEvent `json:"build,omitempty"`
}
