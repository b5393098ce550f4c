package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Количество HTTP запросов",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Длительность HTTP запросов",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// CMSRequestsTotal исходящие запросы к CMS; outcome: ok, not_found, client_error, server_error, network_error, decode_error
	CMSRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_requests_total",
			Help: "Количество запросов к CMS",
		},
		[]string{"collection", "method", "outcome"},
	)

	CMSRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cms_request_duration_seconds",
			Help:    "Длительность запросов к CMS",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "method"},
	)

	NoticeReclassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notice_reclassified_total",
			Help: "Объявления, тип которых исправлен при нормализации",
		},
		[]string{"from", "to"},
	)

	// RegistrationsTotal outcome: confirmed, cancelled, fully_booked, event_not_found, failed
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_registrations_total",
			Help: "Результаты регистраций на события",
		},
		[]string{"backend", "outcome"},
	)
)
