// Package metrics emits AWS CloudWatch Embedded Metric Format (EMF) documents.
// A pipeline run records into one Recorder and flushes a single JSON line;
// on Lambda, CloudWatch lifts the metrics out of the log stream.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Namespace is the CloudWatch namespace for trip journal metrics.
const Namespace = "TripJournal"

// CloudWatch units used by the pipeline.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitNone         = "None"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.Getenv

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

type directive struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type sample struct {
	unit  string
	value float64
}

// Recorder collects one EMF document. Methods may be called from several
// goroutines; Flush writes at most once.
type Recorder struct {
	mu         sync.Mutex
	namespace  string
	out        io.Writer
	now        func() time.Time
	dimensions map[string]string
	samples    map[string]sample
	properties map[string]any
	flushed    bool
}

// New creates a Recorder that flushes to stdout.
func New(namespace string) *Recorder {
	return NewWithWriter(namespace, os.Stdout)
}

// NewWithWriter creates a Recorder that flushes to w; nil discards.
// On Lambda the FunctionName dimension is set from the environment.
func NewWithWriter(namespace string, w io.Writer) *Recorder {
	if w == nil {
		w = io.Discard
	}
	r := &Recorder{
		namespace:  namespace,
		out:        w,
		now:        time.Now,
		dimensions: make(map[string]string),
		samples:    make(map[string]sample),
		properties: make(map[string]any),
	}
	if fn := lookupEnv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		r.dimensions["FunctionName"] = fn
	}
	return r
}

// Dimension sets an indexed attribute of every metric in the document.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dimensions[key] = value
	return r
}

// Metric sets name to value, replacing any earlier sample.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[name] = sample{unit: unit, value: value}
	return r
}

// Add increments name by delta, starting from zero.
func (r *Recorder) Add(name string, delta float64, unit string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.samples[name]
	s.unit = unit
	s.value += delta
	r.samples[name] = s
	return r
}

// Duration records d in milliseconds.
func (r *Recorder) Duration(name string, d time.Duration) *Recorder {
	return r.Metric(name, float64(d.Milliseconds()), UnitMilliseconds)
}

// Property attaches a searchable field that is not a metric.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties[key] = value
	return r
}

// Flush writes the document as one line. Documents without metrics are
// skipped, as are repeated flushes.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.flushed || len(r.samples) == 0 {
		return
	}
	r.flushed = true

	doc := make(map[string]any, len(r.samples)+len(r.dimensions)+len(r.properties)+1)
	for k, v := range r.properties {
		doc[k] = v
	}

	names := make([]string, 0, len(r.samples))
	for name, s := range r.samples {
		names = append(names, name)
		doc[name] = s.value
	}
	slices.Sort(names)
	defs := make([]metricDef, len(names))
	for i, name := range names {
		defs[i] = metricDef{Name: name, Unit: r.samples[name].unit}
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k, v := range r.dimensions {
		dimKeys = append(dimKeys, k)
		doc[k] = v
	}
	slices.Sort(dimKeys)

	doc["_aws"] = directive{
		Timestamp: r.now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    defs,
		}},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		log.Error().Err(err).Str("namespace", r.namespace).Msg("Failed to marshal EMF document")
		return
	}
	data = append(data, '\n')
	if _, err := r.out.Write(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write EMF document")
	}
}
