// Package metrics holds the Prometheus collectors shared by the services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LocationFixes counts raw fixes seen by the stabilizer, by result (accepted|rejected).
	LocationFixes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trono_location_fixes_total",
		Help: "Raw position fixes processed by the location stabilizer.",
	}, []string{"result"})

	// PositionErrors counts errors reported by position sources, by code.
	PositionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trono_position_errors_total",
		Help: "Errors reported by position sources while watching.",
	}, []string{"code"})

	// RankerRequests counts memoized ranking lookups, by cache outcome (hit|miss).
	RankerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trono_ranker_requests_total",
		Help: "Ranking requests served by the memoized ranker.",
	}, []string{"cache"})

	POISnapshotSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trono_poi_snapshot_size",
		Help: "Number of POIs in the current in-memory snapshot.",
	})
)
