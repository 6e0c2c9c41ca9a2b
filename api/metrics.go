package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_preference_loads_total",
		Help: "Arrangements served to clients.",
	})
	metricSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_preference_saves_total",
		Help: "Arrangement replacements by result.",
	}, []string{"result"})
	metricLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})
	metricLiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_live_clients",
		Help: "Open live arrangement connections.",
	})
)
