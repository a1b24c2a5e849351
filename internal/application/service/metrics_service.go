package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/domain/workflow"
)

// MetricsService produces workflow reporting aggregates from the persisted
// transition log. The engine itself holds no history.
type MetricsService interface {
	GetWorkflowMetrics(ctx context.Context, tenantID string, start, end time.Time) (*workflow.Metrics, error)
}

type metricsServiceImpl struct {
	logRepo port.TransitionLogRepository
	logger  *zap.Logger
}

// NewMetricsService creates a MetricsService
func NewMetricsService(logRepo port.TransitionLogRepository, logger *zap.Logger) MetricsService {
	return &metricsServiceImpl{logRepo: logRepo, logger: logger}
}

// GetWorkflowMetrics aggregates a tenant's transition activity in a period:
// counts keyed by event type, mean dwell time per state, bottleneck states
// and per-rule trigger counts with dispatch success rates.
func (s *metricsServiceImpl) GetWorkflowMetrics(ctx context.Context, tenantID string, start, end time.Time) (*workflow.Metrics, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("period end %s before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	rows, err := s.logRepo.ListByTenant(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load transition log: %w", err)
	}

	m := &workflow.Metrics{
		TenantID:           tenantID,
		PeriodStart:        start,
		PeriodEnd:          end,
		TransitionsByEvent: make(map[workflow.EventType]int64),
		AvgStateDuration:   make(map[workflow.Status]time.Duration),
		RuleStats:          make(map[string]workflow.RuleStat),
	}

	byRequest := make(map[string][]*entity.WorkflowTransition)
	for _, row := range rows {
		if !row.Success {
			continue
		}
		m.TotalTransitions++
		m.TransitionsByEvent[workflow.EventType(row.EventType)]++
		byRequest[row.RequestID] = append(byRequest[row.RequestID], row)
		s.accumulateRuleStats(m.RuleStats, row)
	}

	m.AvgStateDuration = dwellTimes(byRequest)
	m.Bottlenecks = bottlenecks(m.AvgStateDuration)

	for name, stat := range m.RuleStats {
		if stat.Triggered > 0 {
			stat.SuccessRate = float64(stat.Succeeded) / float64(stat.Triggered)
		}
		m.RuleStats[name] = stat
	}

	return m, nil
}

func (s *metricsServiceImpl) accumulateRuleStats(stats map[string]workflow.RuleStat, row *entity.WorkflowTransition) {
	if row.RuleNames == "" {
		return
	}

	var names []string
	if err := json.Unmarshal([]byte(row.RuleNames), &names); err != nil {
		s.logger.Warn("malformed rule names on transition row",
			zap.Int64("transition_id", row.ID), zap.Error(err))
		return
	}

	dispatched := row.DispatchedAt != nil && row.DispatchError == ""
	for _, name := range names {
		stat := stats[name]
		stat.Triggered++
		if dispatched {
			stat.Succeeded++
		}
		stats[name] = stat
	}
}

// dwellTimes computes the mean time spent in each state. A request dwells in
// a state from the transition that entered it until the next transition of
// the same request.
func dwellTimes(byRequest map[string][]*entity.WorkflowTransition) map[workflow.Status]time.Duration {
	totals := make(map[workflow.Status]time.Duration)
	counts := make(map[workflow.Status]int64)

	for _, rows := range byRequest {
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		})
		for i := 0; i+1 < len(rows); i++ {
			status := workflow.Status(rows[i].ToStatus)
			totals[status] += rows[i+1].Timestamp.Sub(rows[i].Timestamp)
			counts[status]++
		}
	}

	avg := make(map[workflow.Status]time.Duration, len(totals))
	for status, total := range totals {
		avg[status] = total / time.Duration(counts[status])
	}
	return avg
}

// bottlenecks lists states ordered by mean dwell time, slowest first,
// capped at three
func bottlenecks(durations map[workflow.Status]time.Duration) []workflow.Status {
	states := make([]workflow.Status, 0, len(durations))
	for status := range durations {
		states = append(states, status)
	}
	sort.Slice(states, func(i, j int) bool {
		if durations[states[i]] == durations[states[j]] {
			return states[i] < states[j]
		}
		return durations[states[i]] > durations[states[j]]
	})

	if len(states) > 3 {
		states = states[:3]
	}
	return states
}
