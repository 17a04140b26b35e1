package measure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

// PrometheusMeasure exports the stage measurements as Prometheus metrics.
type PrometheusMeasure struct {
	ObjectsTotal     *prometheus.CounterVec
	ObjectDuration   *prometheus.HistogramVec
	QueueWait        *prometheus.HistogramVec
	DrainedAfter     *prometheus.GaugeVec
	PipelinesStarted prometheus.Counter
	PipelinesDone    prometheus.Counter
}

// NewPrometheusMeasure registers the pipeline metrics in reg.
func NewPrometheusMeasure(reg prometheus.Registerer) *PrometheusMeasure {
	factory := promauto.With(reg)

	return &PrometheusMeasure{
		ObjectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argpipe_stage_objects_total",
				Help: "Total number of objects processed by a stage",
			},
			[]string{"stage"},
		),
		ObjectDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "argpipe_stage_object_duration_seconds",
				Help:    "Time spent processing one object",
				Buckets: []float64{.0001, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"stage"},
		),
		QueueWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "argpipe_stage_queue_wait_seconds",
				Help:    "Time an object waited in the stage queue",
				Buckets: []float64{.0001, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"stage"},
		),
		DrainedAfter: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "argpipe_stage_drained_after_seconds",
				Help: "Time between the pipeline start and the stage drain",
			},
			[]string{"stage"},
		),
		PipelinesStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "argpipe_pipelines_started_total",
				Help: "Total number of pipelines started",
			},
		),
		PipelinesDone: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "argpipe_pipelines_finished_total",
				Help: "Total number of pipelines fully drained",
			},
		),
	}
}

func (pm *PrometheusMeasure) New() error {
	pm.PipelinesStarted.Inc()

	return nil
}

func (pm *PrometheusMeasure) PrepareStage(_, stage *model.StageInfo) error {
	pm.ObjectsTotal.WithLabelValues(stage.Label())

	return nil
}

func (pm *PrometheusMeasure) OnStageOutput(_, stage *model.StageInfo, waitDuration, computationDuration time.Duration) error {
	label := stage.Label()
	pm.ObjectsTotal.WithLabelValues(label).Inc()
	pm.ObjectDuration.WithLabelValues(label).Observe(computationDuration.Seconds())
	pm.QueueWait.WithLabelValues(label).Observe(waitDuration.Seconds())

	return nil
}

func (pm *PrometheusMeasure) OnStageDrained(stage *model.StageInfo, totalDuration time.Duration) error {
	pm.DrainedAfter.WithLabelValues(stage.Label()).Set(totalDuration.Seconds())

	return nil
}

func (pm *PrometheusMeasure) Finish() error {
	pm.PipelinesDone.Inc()

	return nil
}

var _ model.PipelineOption = (*PrometheusMeasure)(nil)
