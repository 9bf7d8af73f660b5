// Package observability defines Prometheus collectors for application-level
// events that the HTTP-level fiberprometheus middleware cannot see.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionExpiries counts sessions destroyed because their server-side
	// expiry had passed when a request presented them.
	SessionExpiries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kfarm_session_expiries_total",
		Help: "Total number of sessions rejected and destroyed as expired",
	})

	// MailSends counts outbound mail attempts by kind and outcome.
	MailSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kfarm_mail_sends_total",
		Help: "Total number of outbound mail attempts",
	}, []string{"kind", "outcome"})

	// UploadFileRemovals counts best-effort deletions of stored upload files.
	UploadFileRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kfarm_upload_file_removals_total",
		Help: "Total number of upload file removal attempts on resource delete",
	}, []string{"outcome"})

	// RedisErrors counts Redis command failures by operation name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kfarm_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)
