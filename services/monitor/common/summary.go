package common

import (
	"fmt"
	"strings"
)

// FormatText renders the summary as a plain-text digest suitable for the email channel
func (s DailySummary) FormatText() string {
	var b strings.Builder

	b.WriteString("Skills service daily summary\n")
	b.WriteString(fmt.Sprintf("Generated at: %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05 MST")))

	b.WriteString(fmt.Sprintf("Alerts triggered in the last 24h: %d\n", s.TriggeredTotal))
	b.WriteString(fmt.Sprintf("  critical: %d\n", s.BySeverity[SeverityCritical]))
	b.WriteString(fmt.Sprintf("  warning:  %d\n", s.BySeverity[SeverityWarning]))
	b.WriteString(fmt.Sprintf("  info:     %d\n\n", s.BySeverity[SeverityInfo]))

	if len(s.ActiveAlerts) == 0 {
		b.WriteString("Currently active alerts: none\n\n")
	} else {
		b.WriteString(fmt.Sprintf("Currently active alerts: %d\n", len(s.ActiveAlerts)))
		for _, a := range s.ActiveAlerts {
			b.WriteString(fmt.Sprintf("  [%s] %s (since %s)\n", a.Severity, a.Name, a.TriggeredAt.Format("15:04:05")))
		}
		b.WriteString("\n")
	}

	if s.LatestSnapshot != nil {
		snap := s.LatestSnapshot
		b.WriteString("Latest metrics:\n")
		b.WriteString(fmt.Sprintf("  error rate:      %.2f%%\n", snap.ErrorRate))
		b.WriteString(fmt.Sprintf("  timeout rate:    %.2f%%\n", snap.TimeoutRate))
		b.WriteString(fmt.Sprintf("  p95 latency:     %.0f ms\n", snap.P95LatencyMs))
		b.WriteString(fmt.Sprintf("  avg latency:     %.0f ms\n", snap.AvgLatencyMs))
		b.WriteString(fmt.Sprintf("  hourly cost:     %.2f\n", snap.HourlyCost))
		b.WriteString(fmt.Sprintf("  cost vs baseline: %.0f%%\n", snap.CostSpikeRatio))
		b.WriteString(fmt.Sprintf("  cache hit rate:  %.2f%%\n", snap.CacheHitRate))
		if snap.ServiceHealth == 1 {
			b.WriteString("  service health:  up\n\n")
		} else {
			b.WriteString("  service health:  DOWN\n\n")
		}
	}

	if len(s.RecentAlerts) > 0 {
		b.WriteString("Most recent alerts:\n")
		for _, a := range s.RecentAlerts {
			line := fmt.Sprintf("  %s [%s] %s %s", a.TriggeredAt.Format("01-02 15:04:05"), a.Severity, a.Name, a.Status)
			if a.ResolvedAt != nil {
				line += fmt.Sprintf(" at %s", a.ResolvedAt.Format("15:04:05"))
			}
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}
