package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-argpipe/pkg/pipeline/measure"
	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
	lastStage string
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStage(model.StartStage.Label())
	if err != nil {
		return errors.Wrap(err, "unable to add start stage to drawer")
	}
	err = pd.AddStage(model.EndStage.Label())
	if err != nil {
		return errors.Wrap(err, "unable to add end stage to drawer")
	}
	pd.lastStage = model.StartStage.Label()

	return nil
}

func (pd *pipelineDrawer) PrepareStage(parentStage, stage *model.StageInfo) error {
	err := pd.AddStage(stage.Label())
	if err != nil {
		return err
	}
	err = pd.AddLink(parentStage.Label(), stage.Label())
	if err != nil {
		return err
	}
	pd.lastStage = stage.Label()

	return nil
}

func (pd *pipelineDrawer) OnStageOutput(_, _ *model.StageInfo, _, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) OnStageDrained(_ *model.StageInfo, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish() error {
	err := pd.AddLink(pd.lastStage, model.EndStage.Label())
	if err != nil {
		return errors.Wrap(err, "unable to link the last stage")
	}

	if pd.m != nil {
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = pd.SetTotalTime(model.EndStage.Label(), time.Since(pd.startTime))
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the stages of a pipeline once it is finished.
// The measure is optional and must be filled by its own pipeline option.
func PipelineDrawer(drawer Drawer, msr measure.Measure) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, m: msr, startTime: time.Now()}
}
