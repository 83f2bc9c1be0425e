package dashboard

import (
	"fmt"
	"math"

	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

// Severity classifies an alert banner.
type Severity string

// Alert severities.
const (
	SeverityInfo     Severity = "info"
	SeverityCritical Severity = "critical"
)

// Business thresholds for the alert evaluators.
const (
	revenueDropThresholdPct = -20.0
	criticalStockUnits      = 5.0
	atRiskFractionThreshold = 0.10
)

// AlertSignal is a warning derived from the latest fetched data. Signals are
// recomputed on every request and never stored; there is no suppression or
// snooze state.
type AlertSignal struct {
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// EvaluateRevenueDrop emits a critical alert when revenue fell 20% or more
// against the previous period. A zero or absent revenue on either side means
// no meaningful ratio exists, so no alert is produced.
func EvaluateRevenueDrop(currentRevenue, previousRevenue float64) *AlertSignal {
	if currentRevenue == 0 || previousRevenue == 0 {
		return nil
	}
	delta := (currentRevenue - previousRevenue) / previousRevenue * 100
	if delta > revenueDropThresholdPct {
		return nil
	}
	return &AlertSignal{
		Severity: SeverityCritical,
		Title:    "Caída de ingresos detectada",
		Description: fmt.Sprintf(
			"Los ingresos del período disminuyeron %.1f%% respecto al período anterior. Revise promociones y campañas en curso.",
			math.Abs(delta),
		),
	}
}

// EvaluateLowStock emits a critical alert counting products below the
// critical stock level.
func EvaluateLowStock(items []upstream.StockItem) *AlertSignal {
	critical := 0
	for _, item := range items {
		if item.Stock < criticalStockUnits {
			critical++
		}
	}
	if critical == 0 {
		return nil
	}
	return &AlertSignal{
		Severity: SeverityCritical,
		Title:    "Productos con stock crítico",
		Description: fmt.Sprintf(
			"%d productos tienen menos de 5 unidades disponibles. Priorice reposición inmediata.",
			critical,
		),
	}
}

// EvaluateAtRiskCustomers emits a critical alert when at least 10% of the
// aggregate customer base is at churn risk.
func EvaluateAtRiskCustomers(segments []upstream.CustomerSegment) *AlertSignal {
	var total, atRisk float64
	for _, seg := range segments {
		total += seg.TotalCustomers
		atRisk += seg.AtRiskCustomers
	}
	if total <= 0 || atRisk/total < atRiskFractionThreshold {
		return nil
	}
	return &AlertSignal{
		Severity:    SeverityCritical,
		Title:       "Clientes en riesgo",
		Description: "Más del 10% de la base está en riesgo de abandono. Inicie acciones de fidelización.",
	}
}
