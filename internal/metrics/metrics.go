// Package metrics exposes index arena usage and operation counts to
// Prometheus.
package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/joshuapare/hyperchunks/chunks"
)

type metricDefinition struct {
	Name string
	Help string
	Type string
}

var (
	arenaLengthDef = metricDefinition{"chunks_arena_length", "Number of chunk slots in the arena, live or free.", "gauge"}
	liveDef        = metricDefinition{"chunks_live", "Number of chunks reachable from the root.", "gauge"}
	freeDef        = metricDefinition{"chunks_free", "Number of chunk ids waiting in the free pool.", "gauge"}
	bytesDef       = metricDefinition{"chunks_bytes", "Arena size in bytes in the packed layout.", "gauge"}
	setsDef        = metricDefinition{"chunks_set_total", "Number of Set calls.", "counter"}
	getsDef        = metricDefinition{"chunks_get_total", "Number of Get calls.", "counter"}
	setErrorsDef   = metricDefinition{"chunks_set_errors_total", "Number of Set calls that returned an error.", "counter"}
)

var definitions = []metricDefinition{
	arenaLengthDef, liveDef, freeDef, bytesDef,
	setsDef, getsDef, setErrorsDef,
}

func (d metricDefinition) desc(constLabels prometheus.Labels) *prometheus.Desc {
	return prometheus.NewDesc(d.Name, d.Help, nil, constLabels)
}

func (d metricDefinition) counterOpts(constLabels prometheus.Labels) prometheus.CounterOpts {
	return prometheus.CounterOpts{Name: d.Name, Help: d.Help, ConstLabels: constLabels}
}

// StatsSource is satisfied by *chunks.Index and *chunks.Locked.
type StatsSource interface {
	Stats() chunks.Stats
}

// Collector reports arena gauges read from a StatsSource at scrape time.
// Pass a *chunks.Locked when the index is written concurrently with scrapes.
type Collector struct {
	src      StatsSource
	arenaLen *prometheus.Desc
	live     *prometheus.Desc
	free     *prometheus.Desc
	bytes    *prometheus.Desc
}

// NewCollector returns a Collector over src. constLabels may be nil.
func NewCollector(src StatsSource, constLabels prometheus.Labels) *Collector {
	return &Collector{
		src:      src,
		arenaLen: arenaLengthDef.desc(constLabels),
		live:     liveDef.desc(constLabels),
		free:     freeDef.desc(constLabels),
		bytes:    bytesDef.desc(constLabels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.arenaLen
	ch <- c.live
	ch <- c.free
	ch <- c.bytes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.arenaLen, prometheus.GaugeValue, float64(st.ArenaLen))
	ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(st.Live))
	ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(st.Free))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(st.Bytes))
}

// Store is the read/write surface of an index.
type Store interface {
	Get(x, y, z, w uint32) chunks.BlockID
	Set(x, y, z, w uint32, id chunks.BlockID) error
}

// Instrumented counts calls through to a Store.
type Instrumented struct {
	Store
	sets      prometheus.Counter
	gets      prometheus.Counter
	setErrors prometheus.Counter
}

// Instrument wraps s and registers its counters with reg. A nil reg leaves
// the counters unregistered.
func Instrument(s Store, reg prometheus.Registerer, constLabels prometheus.Labels) *Instrumented {
	factory := promauto.With(reg)
	return &Instrumented{
		Store:     s,
		sets:      factory.NewCounter(setsDef.counterOpts(constLabels)),
		gets:      factory.NewCounter(getsDef.counterOpts(constLabels)),
		setErrors: factory.NewCounter(setErrorsDef.counterOpts(constLabels)),
	}
}

func (i *Instrumented) Get(x, y, z, w uint32) chunks.BlockID {
	i.gets.Inc()
	return i.Store.Get(x, y, z, w)
}

func (i *Instrumented) Set(x, y, z, w uint32, id chunks.BlockID) error {
	i.sets.Inc()
	err := i.Store.Set(x, y, z, w, id)
	if err != nil {
		i.setErrors.Inc()
	}
	return err
}

// WriteText gathers g and writes the Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Documentation renders a markdown table per metric.
func Documentation() string {
	var sb strings.Builder
	for _, d := range definitions {
		fmt.Fprintf(&sb, `
### %s
| **Name** | %s |
|:---|:---|
| **Description** | %s |
| **Type** | %s |

`, d.Name, d.Name, d.Help, d.Type)
	}
	return sb.String()
}
