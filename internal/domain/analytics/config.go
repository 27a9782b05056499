package analytics

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"ppetrack/pkg/logger"
)

// DefaultCriticalMarker is matched (case-insensitively) against the category
// name to flag protective-equipment materials.
const DefaultCriticalMarker = "EPI"

// RiskConfig is the injected configuration of the risk scorer. Weights and
// the critical-material rule are per-tenant overridable; thresholds
// themselves are derived from the data.
type RiskConfig struct {
	Weights RiskWeights

	// CriticalMarker is the substring rule used when no expression is set.
	CriticalMarker string

	// criticalProgram is an optional compiled CEL expression overriding the
	// marker rule (tenant setting "critical_expr").
	criticalProgram cel.Program
}

// DefaultRiskConfig returns the standard weights and marker rule.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		Weights:        DefaultRiskWeights(),
		CriticalMarker: DefaultCriticalMarker,
	}
}

// criticalEnv declares the attributes an override expression may reference.
func criticalEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("unit_value", cel.DoubleType),
		cel.Variable("minimum_stock", cel.DoubleType),
		cel.Variable("shelf_life_days", cel.IntType),
	)
}

// WithCriticalRule compiles expr and installs it as the critical-material
// rule. The expression must evaluate to a boolean.
func (c RiskConfig) WithCriticalRule(expr string) (RiskConfig, error) {
	if strings.TrimSpace(expr) == "" {
		return c, nil
	}

	env, err := criticalEnv()
	if err != nil {
		return c, fmt.Errorf("critical rule env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return c, fmt.Errorf("compile critical rule: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return c, fmt.Errorf("critical rule must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return c, fmt.Errorf("build critical rule program: %w", err)
	}

	c.criticalProgram = prg
	return c, nil
}

// IsCritical applies the override expression when present, falling back to
// the marker rule on evaluation failure.
func (c RiskConfig) IsCritical(item *StockBalanceItem) bool {
	if c.criticalProgram != nil {
		out, _, err := c.criticalProgram.Eval(map[string]any{
			"name":            item.Name,
			"category":        item.Category,
			"unit_value":      item.UnitValue.InexactFloat64(),
			"minimum_stock":   item.MinimumStock,
			"shelf_life_days": item.ShelfLifeDays,
		})
		if err == nil {
			if b, ok := out.Value().(bool); ok {
				return b
			}
		}
		logger.Default().Warnw("critical rule evaluation failed, using marker rule",
			"material", item.Name, "error", err)
	}

	marker := c.CriticalMarker
	if marker == "" {
		marker = DefaultCriticalMarker
	}
	return strings.Contains(strings.ToUpper(item.Category), strings.ToUpper(marker))
}
