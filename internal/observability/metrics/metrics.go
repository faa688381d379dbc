package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoiceMetrics exposes counters/histograms for voice call sessions.
type VoiceMetrics struct {
	sessionsTotal  *prometheus.CounterVec
	activeSessions prometheus.Gauge
	turnsTotal     *prometheus.CounterVec
	intentsTotal   *prometheus.CounterVec
	promptsTotal   *prometheus.CounterVec
	speechTotal    *prometheus.CounterVec
	speechLatency  *prometheus.HistogramVec
	transfersTotal *prometheus.CounterVec
}

func NewVoiceMetrics(reg prometheus.Registerer) *VoiceMetrics {
	m := &VoiceMetrics{
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emi",
			Subsystem: "voice",
			Name:      "sessions_total",
			Help:      "Voice sessions by final outcome",
		}, []string{"outcome"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "emi",
			Subsystem: "voice",
			Name:      "active_sessions",
			Help:      "Currently open voice streams",
		}),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emi",
			Subsystem: "voice",
			Name:      "turns_total",
			Help:      "Completed caller turns by state and whether speech was recognized",
		}, []string{"state", "heard"}),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emi",
			Subsystem: "voice",
			Name:      "intents_total",
			Help:      "Classified caller intents",
		}, []string{"intent", "language"}),
		promptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emi",
			Subsystem: "voice",
			Name:      "prompts_total",
			Help:      "Prompts played, or skipped when synthesis failed",
		}, []string{"prompt", "status"}),
		speechTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emi",
			Subsystem: "speech",
			Name:      "requests_total",
			Help:      "Speech service calls",
		}, []string{"operation", "status"}),
		speechLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "emi",
			Subsystem: "speech",
			Name:      "latency_seconds",
			Help:      "Latency of speech service calls including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		transfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emi",
			Subsystem: "voice",
			Name:      "agent_transfers_total",
			Help:      "Agent transfer attempts",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.sessionsTotal, m.activeSessions, m.turnsTotal, m.intentsTotal,
		m.promptsTotal, m.speechTotal, m.speechLatency, m.transfersTotal,
	)
	return m
}

func (m *VoiceMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *VoiceMetrics) SessionEnded(outcome string) {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
	m.sessionsTotal.WithLabelValues(outcome).Inc()
}

func (m *VoiceMetrics) ObserveTurn(state string, heard bool) {
	if m == nil {
		return
	}
	label := "false"
	if heard {
		label = "true"
	}
	m.turnsTotal.WithLabelValues(state, label).Inc()
}

func (m *VoiceMetrics) ObserveIntent(intent, lang string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent, lang).Inc()
}

func (m *VoiceMetrics) ObservePrompt(prompt, status string) {
	if m == nil {
		return
	}
	m.promptsTotal.WithLabelValues(prompt, status).Inc()
}

func (m *VoiceMetrics) ObserveSpeech(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.speechTotal.WithLabelValues(operation, status).Inc()
	m.speechLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *VoiceMetrics) ObserveTransfer(status string) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(status).Inc()
}
