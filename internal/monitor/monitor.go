// Package monitor watches queue depth and moderation throughput and raises
// alerts before the channel runs dry.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsPlanner/internal/infrastructure/storage"
)

// Level grades a health check result.
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Thresholds tune when checks fire.
type Thresholds struct {
	BufferCritical   int
	BufferWarning    int
	RejectionRateMax float64
	DailyTarget      int
}

func (t Thresholds) withDefaults() Thresholds {
	if t.BufferCritical <= 0 {
		t.BufferCritical = 5
	}
	if t.BufferWarning <= 0 {
		t.BufferWarning = 10
	}
	if t.RejectionRateMax <= 0 {
		t.RejectionRateMax = 0.85
	}
	if t.DailyTarget <= 0 {
		t.DailyTarget = 5
	}
	return t
}

// StatsSource is the slice of the store the monitor reads.
type StatsSource interface {
	Health() (storage.QueueHealth, error)
	Stats() (storage.QueueStats, error)
	Moderation() (storage.ModerationStats, error)
	History() (storage.HistoryStats, error)
}

// Alerter delivers alert and summary messages to the operator channel.
type Alerter interface {
	Send(ctx context.Context, text string) error
}

// Check is one named health finding.
type Check struct {
	Name    string
	Level   Level
	Message string
}

// Report bundles all checks with the raw numbers behind them.
type Report struct {
	Checks     []Check
	Queue      storage.QueueHealth
	Moderation storage.ModerationStats
	History    storage.HistoryStats
}

// Worst returns the most severe level across the checks.
func (r Report) Worst() Level {
	worst := LevelOK
	for _, c := range r.Checks {
		if c.Level == LevelCritical {
			return LevelCritical
		}
		if c.Level == LevelWarning {
			worst = LevelWarning
		}
	}
	return worst
}

// Monitor evaluates store statistics against thresholds.
type Monitor struct {
	source     StatsSource
	alerter    Alerter
	thresholds Thresholds
	logger     *slog.Logger
}

// New builds a monitor; alerter may be nil to disable outbound alerts.
func New(source StatsSource, alerter Alerter, thresholds Thresholds, logger *slog.Logger) *Monitor {
	return &Monitor{
		source:     source,
		alerter:    alerter,
		thresholds: thresholds.withDefaults(),
		logger:     logger,
	}
}

// Evaluate runs all health checks and returns the report.
func (m *Monitor) Evaluate() (Report, error) {
	queue, err := m.source.Health()
	if err != nil {
		return Report{}, fmt.Errorf("queue health: %w", err)
	}
	moderation, err := m.source.Moderation()
	if err != nil {
		return Report{}, fmt.Errorf("moderation stats: %w", err)
	}
	history, err := m.source.History()
	if err != nil {
		return Report{}, fmt.Errorf("history stats: %w", err)
	}

	report := Report{Queue: queue, Moderation: moderation, History: history}
	report.Checks = append(report.Checks,
		m.checkBuffer(queue),
		m.checkRejectionRate(moderation),
		m.checkDailyOutput(history),
	)
	return report, nil
}

// Alert evaluates and, when anything is off, sends one combined alert
// message. Healthy reports stay silent.
func (m *Monitor) Alert(ctx context.Context) (Report, error) {
	report, err := m.Evaluate()
	if err != nil {
		return Report{}, err
	}
	worst := report.Worst()
	if worst == LevelOK || m.alerter == nil {
		return report, nil
	}

	if err := m.alerter.Send(ctx, alertText(report)); err != nil {
		return report, fmt.Errorf("send alert: %w", err)
	}
	if m.logger != nil {
		m.logger.Warn("health alert sent", "level", worst)
	}
	return report, nil
}

// DailySummary sends the end-of-day stats message.
func (m *Monitor) DailySummary(ctx context.Context) error {
	report, err := m.Evaluate()
	if err != nil {
		return err
	}
	if m.alerter == nil {
		return nil
	}
	return m.alerter.Send(ctx, summaryText(report))
}

func (m *Monitor) checkBuffer(queue storage.QueueHealth) Check {
	check := Check{Name: "post_buffer", Level: LevelOK,
		Message: fmt.Sprintf("%d posts buffered", queue.PostsInBuffer)}
	switch {
	case queue.PostsInBuffer < m.thresholds.BufferCritical:
		check.Level = LevelCritical
		check.Message = fmt.Sprintf("only %d posts buffered (need %d)",
			queue.PostsInBuffer, m.thresholds.BufferCritical)
	case queue.PostsInBuffer < m.thresholds.BufferWarning:
		check.Level = LevelWarning
		check.Message = fmt.Sprintf("%d posts buffered, below comfort level %d",
			queue.PostsInBuffer, m.thresholds.BufferWarning)
	}
	return check
}

func (m *Monitor) checkRejectionRate(moderation storage.ModerationStats) Check {
	check := Check{Name: "rejection_rate", Level: LevelOK,
		Message: fmt.Sprintf("rejection rate %.0f%%", moderation.RejectionRate*100)}
	if moderation.RejectionRate > m.thresholds.RejectionRateMax {
		check.Level = LevelWarning
		check.Message = fmt.Sprintf("rejection rate %.0f%% exceeds %.0f%%",
			moderation.RejectionRate*100, m.thresholds.RejectionRateMax*100)
	}
	return check
}

func (m *Monitor) checkDailyOutput(history storage.HistoryStats) Check {
	check := Check{Name: "daily_output", Level: LevelOK,
		Message: fmt.Sprintf("%d of %d posts sent today", history.SentToday, m.thresholds.DailyTarget)}
	if history.SentToday < m.thresholds.DailyTarget {
		check.Level = LevelWarning
		check.Message = fmt.Sprintf("only %d of %d posts sent today",
			history.SentToday, m.thresholds.DailyTarget)
	}
	return check
}

func alertText(report Report) string {
	var b strings.Builder
	b.WriteString("Health alert\n")
	for _, c := range report.Checks {
		if c.Level == LevelOK {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", strings.ToUpper(string(c.Level)), c.Name, c.Message)
	}
	return strings.TrimSpace(b.String())
}

func summaryText(report Report) string {
	var b strings.Builder
	b.WriteString("Daily summary\n")
	fmt.Fprintf(&b, "Sent today: %d\n", report.History.SentToday)
	fmt.Fprintf(&b, "Buffered: %d\n", report.Queue.PostsInBuffer)
	fmt.Fprintf(&b, "Awaiting approval: %d\n", report.Moderation.PendingApproval)
	fmt.Fprintf(&b, "Rejection rate: %.0f%%\n", report.Moderation.RejectionRate*100)
	if report.Queue.NextPost != nil {
		fmt.Fprintf(&b, "Next post: %s\n", report.Queue.NextPost.Format(time.RFC822))
	}
	return strings.TrimSpace(b.String())
}
