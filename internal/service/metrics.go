package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var coinsCredited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ekh_credited_total",
		Help: "Total EKH credited to balances, by crediting source",
	},
	[]string{"source"},
)

func init() {
	prometheus.MustRegister(coinsCredited)
}

func observeCredit(source string, amount float64) {
	if amount > 0 {
		coinsCredited.WithLabelValues(source).Add(amount)
	}
}
