package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "ircline"

var (
	descSessionsActive = prometheus.NewDesc(namespace+"_sessions_active",
		"Number of IRC sessions currently connected.", nil, nil)
	descSessionsTotal = prometheus.NewDesc(namespace+"_sessions_total",
		"IRC sessions that reached the connected state.", nil, nil)
	descDisconnects = prometheus.NewDesc(namespace+"_disconnects_total",
		"Sessions that ended, including failed dials.", nil, nil)
	descReconnects = prometheus.NewDesc(namespace+"_reconnects_total",
		"Reconnect attempts scheduled.", nil, nil)
	descLines = prometheus.NewDesc(namespace+"_lines_total",
		"Protocol lines by direction.", []string{"direction"}, nil)
	descBytes = prometheus.NewDesc(namespace+"_bytes_total",
		"Socket bytes by direction.", []string{"direction"}, nil)
	descMessages = prometheus.NewDesc(namespace+"_channel_messages_total",
		"Decoded PRIVMSG lines addressed to a channel.", nil, nil)
	descPings = prometheus.NewDesc(namespace+"_pings_answered_total",
		"Server PINGs answered with PONG.", nil, nil)
	descErrors = prometheus.NewDesc(namespace+"_errors_total",
		"Transport and framing errors.", nil, nil)
)

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		descSessionsActive, descSessionsTotal, descDisconnects, descReconnects,
		descLines, descBytes, descMessages, descPings, descErrors,
	} {
		ch <- d
	}
}

// Collect implements [prometheus.Collector] by reading the atomic
// counters at scrape time.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.Snapshot()
	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	ch <- prometheus.MustNewConstMetric(descSessionsActive, prometheus.GaugeValue, float64(s.SessionsActive))
	counter(descSessionsTotal, s.SessionsTotal)
	counter(descDisconnects, s.Disconnects)
	counter(descReconnects, s.Reconnects)
	counter(descLines, s.LinesIn, "in")
	counter(descLines, s.LinesOut, "out")
	counter(descBytes, s.BytesIn, "in")
	counter(descBytes, s.BytesOut, "out")
	counter(descMessages, s.MessagesIn)
	counter(descPings, s.PingsAnswered)
	counter(descErrors, s.ErrorsTotal)
}
