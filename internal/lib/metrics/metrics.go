// Package metrics содержит prometheus-метрики сервиса назначений.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AssignedUsers число пользователей, у которых изменились назначения.
	AssignedUsers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entitlements",
		Name:      "assigned_users_total",
		Help:      "Users whose assignments were changed, by operation.",
	}, []string{"operation"})

	// AssignmentErrors ошибки операций назначения по классу ошибки.
	AssignmentErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entitlements",
		Name:      "assignment_errors_total",
		Help:      "Failed assignment operations, by operation and error kind.",
	}, []string{"operation", "kind"})

	// BackfillUsers результат обработки пользователей при заполнении каталога по умолчанию.
	BackfillUsers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entitlements",
		Name:      "backfill_users_total",
		Help:      "Users processed by the default catalog backfill, by result.",
	}, []string{"result"})

	// HTTPRequestDuration длительность HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "entitlements",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
