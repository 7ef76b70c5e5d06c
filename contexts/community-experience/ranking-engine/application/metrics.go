package application

import (
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	"bountyboard/contexts/community-experience/ranking-engine/ports"
)

type noopMetrics struct{}

func (noopMetrics) EventProcessed(entities.Severity, int) {}
func (noopMetrics) AchievementUnlocked(string) {}
func (noopMetrics) RedemptionAttempted(string, string) {}
func (noopMetrics) LeaderboardCacheLookup(bool) {}

// ResolveMetrics guarantees a non-nil metrics sink.
func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics == nil {
		return noopMetrics{}
	}
	return metrics
}
