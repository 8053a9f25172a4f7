package display

import (
	"fmt"
	"strings"

	"blockmate/internal/metrics"
	"blockmate/internal/parser"
	"blockmate/internal/pipeline"
)

const maxParamValueLength = 80

// FormatPlan renders a plan for preview before or during execution.
func FormatPlan(plan *parser.Plan) string {
	var sb strings.Builder
	sb.WriteString("Planned actions:\n")
	sb.WriteString("--------------------------------------------------\n")
	for i, action := range plan.Actions {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, action.Kind))
		for key, val := range action.Params {
			sb.WriteString(fmt.Sprintf("     %s: %s\n", key, formatValue(val)))
		}
	}
	if plan.Reasoning != "" {
		sb.WriteString("Reasoning: " + plan.Reasoning + "\n")
	}
	sb.WriteString("--------------------------------------------------")
	return sb.String()
}

// FormatResult renders the per-action success/failure breakdown every
// command ends with.
func FormatResult(cm *metrics.CommandMetrics) string {
	var sb strings.Builder
	if cm.Succeeded {
		sb.WriteString(fmt.Sprintf("[Command %s DONE] %d/%d action(s) succeeded (%dms)",
			cm.CommandID, cm.SuccessCount, len(cm.Actions), cm.DurationMs))
	} else if len(cm.Actions) == 0 {
		sb.WriteString(fmt.Sprintf("[Command %s SKIPPED] %s", cm.CommandID, cm.Reason))
	} else {
		sb.WriteString(fmt.Sprintf("[Command %s FAILED] 0/%d action(s) succeeded (%dms)",
			cm.CommandID, len(cm.Actions), cm.DurationMs))
	}
	for i, a := range cm.Actions {
		mark := "ok"
		if !a.Success {
			mark = "FAILED: " + a.Err
		}
		sb.WriteString(fmt.Sprintf("\n  %d. %-14s %s (%dms)", i+1, a.Kind, mark, a.DurationMs))
	}
	return sb.String()
}

// FormatStatus renders the derived executor status.
func FormatStatus(s pipeline.Status) string {
	executing := "idle"
	if s.IsExecuting {
		executing = "executing"
	}
	return fmt.Sprintf("Status: %s | queue: %d | history: %d command(s)",
		executing, s.QueueLength, s.HistoryCount)
}

// FormatHistory renders recent commands, most recent first.
func FormatHistory(entries []pipeline.HistoryEntry) string {
	if len(entries) == 0 {
		return "No commands executed yet."
	}
	var sb strings.Builder
	sb.WriteString("Recent commands:\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("  [%s] %q -> %d/%d succeeded\n",
			e.Timestamp.Format("15:04:05"), e.Input, e.SuccessCount, len(e.Actions)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatValue(value any) string {
	s := fmt.Sprintf("%v", value)
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) > maxParamValueLength {
		return s[:maxParamValueLength] + "..."
	}
	return s
}
