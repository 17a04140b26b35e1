package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/askiada/go-argpipe/pkg/pipeline/measure"
)

// writeMeasure prints one line per stage: objects, average duration and drain time.
func writeMeasure(w io.Writer, msr measure.Measure) error {
	metrics := msr.AllMetrics()
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, err := fmt.Fprintln(tw, "STAGE\tOBJECTS\tAVG\tDRAINED AFTER")
	if err != nil {
		return errors.Wrap(err, "unable to write measure")
	}
	for _, name := range names {
		mt := metrics[name]
		_, err = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, mt.Count(), mt.AVGDuration(), mt.GetTotalDuration())
		if err != nil {
			return errors.Wrapf(err, "unable to write measure of %s", name)
		}
	}

	return errors.Wrap(tw.Flush(), "unable to write measure")
}

// writeMetrics prints the metrics gathered from reg in the Prometheus text format.
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "unable to gather metrics")
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		err = enc.Encode(family)
		if err != nil {
			return errors.Wrapf(err, "unable to write metric %s", family.GetName())
		}
	}

	return nil
}
