package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fecaudit/fecaudit/internal/model"
)

// anomalyTypeLabels maps anomaly types to display names.
var anomalyTypeLabels = map[model.AnomalyType]string{
	model.TypeDuplicateEntry:         "Duplicate entry",
	model.TypeSuspiciousPattern:      "Suspicious pattern",
	model.TypeMissingData:            "Missing data",
	model.TypeDateInconsistency:      "Date inconsistency",
	model.TypeBalanceMismatch:        "Balance mismatch",
	model.TypeUnusualAccountActivity: "Unusual account activity",
	model.TypeCalculationError:       "Calculation error",
	model.TypeOther:                  "Other",
}

func typeLabel(t model.AnomalyType) string {
	if label, ok := anomalyTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// RenderReport writes a styled anomaly report.
func RenderReport(w io.Writer, anomalies []model.Anomaly, entryCount int) {
	fmt.Fprintln(w, TitleStyle.Render(ChartIcon+" Ledger Audit Report"))
	fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("%d entries analyzed, %d anomalies found", entryCount, len(anomalies))))

	if len(anomalies) == 0 {
		fmt.Fprintln(w, FormatSuccess("No anomalies detected"))
		return
	}

	fmt.Fprintln(w, renderTypeSummary(anomalies))
	fmt.Fprintln(w)

	for i, a := range anomalies {
		fmt.Fprintln(w, renderAnomaly(i+1, a))
	}
}

func renderTypeSummary(anomalies []model.Anomaly) string {
	counts := make(map[model.AnomalyType]int)
	for _, a := range anomalies {
		counts[a.Type]++
	}

	types := make([]model.AnomalyType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})

	var b strings.Builder
	for _, t := range types {
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render(fmt.Sprintf("%3d", counts[t])), typeLabel(t))
	}
	return BoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderAnomaly(n int, a model.Anomaly) string {
	style := confidenceStyle(a.Confidence)
	header := fmt.Sprintf("%d. [%s] %s", n, typeLabel(a.Type), style.Render(fmt.Sprintf("%.0f%%", a.Confidence*100)))

	var b strings.Builder
	b.WriteString(BoldStyle.Render(header))
	b.WriteString("\n   " + a.Description)
	if len(a.Lines) > 0 {
		b.WriteString("\n   " + SubtleStyle.Render("lines: "+joinLines(a.Lines)))
	}
	return b.String()
}

func confidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.8:
		return ErrorStyle
	case confidence >= 0.5:
		return WarningStyle
	default:
		return InfoStyle
	}
}

// joinLines prints 1-based line numbers for human consumption.
func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("%d", l+1)
	}
	return strings.Join(parts, ", ")
}
