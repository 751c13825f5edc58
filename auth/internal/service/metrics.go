package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	userTokensMintedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_user_tokens_minted_total",
		Help: "Total number of user tokens minted through the direct-mint path.",
	})

	revocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_revocations_total",
		Help: "Total number of tokens written to the revocation store.",
	})

	enrichmentDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_claim_enrichment_degraded_total",
		Help: "Total number of issuances that proceeded with a degraded claim set.",
	})
)
