package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of successful logins.",
	})

	loginFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_failures_total",
		Help: "Total number of failed login attempts.",
	})

	revokeRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_revoke_requests_total",
		Help: "Total number of revoke and logout requests handled.",
	})
)
