package sequence

// =============================================================================
// Stage Machine
// =============================================================================

// Stage is a position in the linear rebuild sequence.
// The only transition is Next; StageDone is terminal.
type Stage int

const (
	StageStop Stage = iota + 1
	StageRemoveContainers
	StageRemoveImages
	StageBuildFrontend
	StageComposeUp
	StageDone
)

// FirstStage is where every run begins.
const FirstStage = StageStop

var stageNames = map[Stage]string{
	StageStop:             "stop-containers",
	StageRemoveContainers: "remove-containers",
	StageRemoveImages:     "remove-images",
	StageBuildFrontend:    "build-frontend",
	StageComposeUp:        "compose-up",
	StageDone:             "done",
}

// String returns the stage name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Number returns the 1-based step number, or 0 for StageDone and invalid values.
func (s Stage) Number() int {
	if s >= StageStop && s < StageDone {
		return int(s)
	}
	return 0
}

// Next returns the following stage. It does not depend on how the current
// stage's command exited.
func (s Stage) Next() Stage {
	if s >= StageStop && s < StageDone {
		return s + 1
	}
	return StageDone
}

// IsTerminal reports whether s is StageDone.
func (s Stage) IsTerminal() bool {
	return s == StageDone
}
