// Package report renders workflow metrics into spreadsheet reports for
// space operators.
package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/deskhive/deskhive/internal/domain/workflow"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Workflow Metrics"

// Exporter writes workflow metrics workbooks to an output directory
type Exporter struct {
	outputDir string
	logger    *zap.Logger
}

// NewExporter creates a new metrics exporter
func NewExporter(outputDir string, logger *zap.Logger) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		logger:    logger,
	}
}

// Export renders the metrics into an xlsx workbook and returns the path of
// the written file.
func (e *Exporter) Export(m *workflow.Metrics) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to drop default sheet: %w", err)
	}

	row := 1
	row = e.writeSummary(f, m, row)
	row = e.writeEventCounts(f, m, row)
	row = e.writeStateDurations(f, m, row)
	e.writeRuleStats(f, m, row)

	name := fmt.Sprintf("workflow-metrics-%s-%s.xlsx",
		m.TenantID, m.PeriodStart.Format("2006-01-02"))
	outputPath := filepath.Join(e.outputDir, name)

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	e.logger.Info("Metrics report written",
		zap.String("tenant_id", m.TenantID),
		zap.String("output_path", outputPath))

	return outputPath, nil
}

func (e *Exporter) writeSummary(f *excelize.File, m *workflow.Metrics, row int) int {
	e.setCell(f, row, "A", "Tenant")
	e.setCell(f, row, "B", m.TenantID)
	row++
	e.setCell(f, row, "A", "Period")
	e.setCell(f, row, "B", fmt.Sprintf("%s to %s",
		m.PeriodStart.Format("2006-01-02"), m.PeriodEnd.Format("2006-01-02")))
	row++
	e.setCell(f, row, "A", "Total transitions")
	e.setCell(f, row, "B", fmt.Sprintf("%d", m.TotalTransitions))
	return row + 2
}

func (e *Exporter) writeEventCounts(f *excelize.File, m *workflow.Metrics, row int) int {
	e.setCell(f, row, "A", "Event")
	e.setCell(f, row, "B", "Count")
	row++

	events := make([]workflow.EventType, 0, len(m.TransitionsByEvent))
	for evt := range m.TransitionsByEvent {
		events = append(events, evt)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })

	for _, evt := range events {
		e.setCell(f, row, "A", string(evt))
		e.setCell(f, row, "B", fmt.Sprintf("%d", m.TransitionsByEvent[evt]))
		row++
	}
	return row + 1
}

func (e *Exporter) writeStateDurations(f *excelize.File, m *workflow.Metrics, row int) int {
	bottleneck := make(map[workflow.Status]bool, len(m.Bottlenecks))
	for _, s := range m.Bottlenecks {
		bottleneck[s] = true
	}

	e.setCell(f, row, "A", "State")
	e.setCell(f, row, "B", "Avg time in state")
	e.setCell(f, row, "C", "Bottleneck")
	row++

	statuses := make([]workflow.Status, 0, len(m.AvgStateDuration))
	for s := range m.AvgStateDuration {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	for _, s := range statuses {
		e.setCell(f, row, "A", string(s))
		e.setCell(f, row, "B", formatDuration(m.AvgStateDuration[s]))
		if bottleneck[s] {
			e.setCell(f, row, "C", "yes")
		}
		row++
	}
	return row + 1
}

func (e *Exporter) writeRuleStats(f *excelize.File, m *workflow.Metrics, row int) {
	e.setCell(f, row, "A", "Rule")
	e.setCell(f, row, "B", "Triggered")
	e.setCell(f, row, "C", "Succeeded")
	e.setCell(f, row, "D", "Success rate")
	row++

	names := make([]string, 0, len(m.RuleStats))
	for name := range m.RuleStats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stat := m.RuleStats[name]
		e.setCell(f, row, "A", name)
		e.setCell(f, row, "B", fmt.Sprintf("%d", stat.Triggered))
		e.setCell(f, row, "C", fmt.Sprintf("%d", stat.Succeeded))
		e.setCell(f, row, "D", fmt.Sprintf("%.0f%%", stat.SuccessRate*100))
		row++
	}
}

func (e *Exporter) setCell(f *excelize.File, row int, col, value string) {
	cell := fmt.Sprintf("%s%d", col, row)
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
