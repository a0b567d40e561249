/**
 * @description
 * Prometheus metrics for the campaign-service. Counters cover the donation
 * hot path, the deadline sweep and side-effect dispatch failures; exposition
 * happens on /metrics via promhttp in the router.
 */
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DonationsRecordedTotal    prometheus.Counter
	DonationsRejectedTotal    prometheus.Counter
	BadgesAwardedTotal        *prometheus.CounterVec
	StatusTransitionsTotal    *prometheus.CounterVec
	SweepRunsTotal            prometheus.Counter
	SweepCampaignsClosedTotal prometheus.Counter
	SweepRemindersTotal       prometheus.Counter
	SideEffectFailuresTotal   *prometheus.CounterVec
}

// New registers the service metrics on the given registerer. Binaries pass
// prometheus.DefaultRegisterer; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DonationsRecordedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "campaign_donations_recorded_total",
			Help: "Total number of donations written to the ledger",
		}),
		DonationsRejectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "campaign_donations_rejected_total",
			Help: "Total number of donations rejected by validation",
		}),
		BadgesAwardedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_badges_awarded_total",
			Help: "Total number of badges awarded, by badge type",
		}, []string{"badge_type"}),
		StatusTransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_status_transitions_total",
			Help: "Total number of campaign lifecycle transitions, by target status",
		}, []string{"status"}),
		SweepRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "campaign_deadline_sweep_runs_total",
			Help: "Total number of deadline monitor sweeps executed",
		}),
		SweepCampaignsClosedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "campaign_deadline_sweep_closed_total",
			Help: "Total number of campaigns closed by the deadline monitor",
		}),
		SweepRemindersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "campaign_deadline_sweep_reminders_total",
			Help: "Total number of deadline reminder emails sent by the monitor",
		}),
		SideEffectFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_side_effect_failures_total",
			Help: "Total number of failed side-effect dispatches, by channel",
		}, []string{"channel"}),
	}
}
