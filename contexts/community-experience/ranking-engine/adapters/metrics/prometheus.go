package metrics

import (
	"strconv"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Prometheus struct {
	eventsProcessed      *prometheus.CounterVec
	pointsAwarded        *prometheus.CounterVec
	achievementsUnlocked *prometheus.CounterVec
	redemptions          *prometheus.CounterVec
	cacheLookups         *prometheus.CounterVec
}

// NewPrometheus registers the ranking collectors on reg. A nil reg uses the
// default registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Prometheus{
		eventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bountyboard",
			Subsystem: "ranking",
			Name:      "events_processed_total",
			Help:      "Scoring events applied (severity=critical/high/medium/low)",
		}, []string{"severity"}),
		pointsAwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bountyboard",
			Subsystem: "ranking",
			Name:      "points_awarded_total",
			Help:      "Points awarded by scoring events",
		}, []string{"severity"}),
		achievementsUnlocked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bountyboard",
			Subsystem: "ranking",
			Name:      "achievements_unlocked_total",
			Help:      "Achievements unlocked",
		}, []string{"achievement_id"}),
		redemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bountyboard",
			Subsystem: "ranking",
			Name:      "redemptions_total",
			Help:      "Redemption attempts (outcome=redeemed/ineligible/not_found)",
		}, []string{"reward_id", "outcome"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bountyboard",
			Subsystem: "ranking",
			Name:      "leaderboard_cache_lookups_total",
			Help:      "Leaderboard cache lookups",
		}, []string{"hit"}),
	}
}

func (p *Prometheus) EventProcessed(severity entities.Severity, points int) {
	p.eventsProcessed.WithLabelValues(string(severity)).Inc()
	p.pointsAwarded.WithLabelValues(string(severity)).Add(float64(points))
}

func (p *Prometheus) AchievementUnlocked(achievementID string) {
	p.achievementsUnlocked.WithLabelValues(achievementID).Inc()
}

func (p *Prometheus) RedemptionAttempted(rewardID string, outcome string) {
	p.redemptions.WithLabelValues(rewardID, outcome).Inc()
}

func (p *Prometheus) LeaderboardCacheLookup(hit bool) {
	p.cacheLookups.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

var _ ports.Metrics = (*Prometheus)(nil)
