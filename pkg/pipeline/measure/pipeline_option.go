package measure

import (
	"time"

	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(model.StartStage.Label())
	pm.AddMetric(model.EndStage.Label())

	return nil
}

func (pm *pipelineMeasure) PrepareStage(_, stage *model.StageInfo) error {
	pm.AddMetric(stage.Label())

	return nil
}

func (pm *pipelineMeasure) OnStageOutput(parentStage, stage *model.StageInfo, waitDuration, computationDuration time.Duration) error {
	mt := pm.GetMetric(stage.Label())
	if mt == nil {
		mt = pm.AddMetric(stage.Label())
	}
	mt.AddDuration(computationDuration)
	mt.AddTransportDuration(parentStage.Label(), waitDuration)

	return nil
}

func (pm *pipelineMeasure) OnStageDrained(stage *model.StageInfo, totalDuration time.Duration) error {
	if mt := pm.GetMetric(stage.Label()); mt != nil {
		mt.SetTotalDuration(totalDuration)
	}
	if mt := pm.GetMetric(model.EndStage.Label()); mt != nil && totalDuration > mt.GetTotalDuration() {
		mt.SetTotalDuration(totalDuration)
	}

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}

// PipelineMeasure records the stage durations of a pipeline into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
