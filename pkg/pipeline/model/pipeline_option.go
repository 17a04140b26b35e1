package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error
	// PrepareStage runs when a stage is appended after parentStage.
	PrepareStage(parentStage, stage *StageInfo) error
	// OnStageOutput runs everytime a stage finished processing one object.
	// waitDuration is the time the object spent in the stage queue.
	OnStageOutput(parentStage, stage *StageInfo, waitDuration, computationDuration time.Duration) error
	// OnStageDrained runs when a stage is drained, totalDuration is measured from the pipeline start.
	OnStageDrained(stage *StageInfo, totalDuration time.Duration) error
	// Finish runs after the pipeline is finished.
	Finish() error
}
