package model

import (
	"fmt"
	"strings"
)

// StageKind tells which kind of stage a StageInfo describes.
type StageKind string

const (
	RootStageKind      = "root"
	InputStageKind     = "input"
	InProcessStageKind = "in-process"
	ActionStageKind    = "action"
	ExternalStageKind  = "external"
)

// StageInfo describes a stage of an argument pipeline.
type StageInfo struct {
	Kind   StageKind
	Index  int
	Name   string
	Tokens []string
}

// Label is the unique name of the stage inside its pipeline.
func (si *StageInfo) Label() string {
	if si.Index < 0 {
		return si.Name
	}

	return fmt.Sprintf("#%d %s", si.Index, si.Name)
}

// CommandLine joins the stage tokens back into a single string.
func (si *StageInfo) CommandLine() string {
	return strings.Join(si.Tokens, " ")
}

var (
	StartStage = &StageInfo{Name: "start", Index: -1}
	EndStage   = &StageInfo{Name: "end", Index: -1}
)
