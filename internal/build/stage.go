package build

import "fmt"

// Stage is a step of the per-target state machine, in execution order
type Stage int

const (
	// StageConfiguring covers finding and parsing the configuration file
	StageConfiguring Stage = iota
	StagePendingPrebuild
	StageResourceCompiling
	StageCompiling
	StageArchiving
	StagePendingPostbuild
	StageDone
)

var stageNames = []string{
	"Configuring",
	"PendingPrebuild",
	"ResourceCompiling",
	"Compiling",
	"Archiving",
	"PendingPostbuild",
	"Done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Progress is reported every time a target changes stage or finishes
type Progress struct {
	Directory string
	Target    string
	Stage     Stage
	// Finished is set once the target will not change stage again
	Finished  bool
	Succeeded bool
}

// ProgressFunc receives progress updates. It is called on the goroutine
// running the build.
type ProgressFunc func(p Progress)
