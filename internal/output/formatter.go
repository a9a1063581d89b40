package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

// Formatter defines a pluggable output formatter that returns a byte slice.
// Implementations should be pure (no side effects besides deterministic
// formatting).
type Formatter interface {
	Format(result *domain.ModelResult) ([]byte, error)
	// Name returns a short identifier for logging / debugging.
	Name() string
}

// ByName returns the formatter registered under the given identifier.
func ByName(name string) (Formatter, error) {
	switch name {
	case "console", "":
		return ConsoleFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", name)
}

// WriteFormatted runs a formatter and writes the output to path, or stdout
// when path is empty.
func WriteFormatted(f Formatter, result *domain.ModelResult, path string) error {
	data, err := f.Format(result)
	if err != nil {
		return fmt.Errorf("formatting failed: %w", err)
	}
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// JSONFormatter serializes the model result as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(result *domain.ModelResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// ConsoleFormatter renders a readable per-age table plus the cashflow trace
// header for terminals.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func money(d decimal.Decimal) string {
	return "£" + humanize.CommafWithDigits(d.InexactFloat64(), 0)
}

func percent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func (c ConsoleFormatter) Format(result *domain.ModelResult) ([]byte, error) {
	var b strings.Builder

	title := "RETIREMENT AGE SWEEP"
	ageLabel := "Age"
	if result.Mode == domain.ModeCoastFire {
		title = "COAST-FIRE CONTRIBUTION-STOP SWEEP"
		ageLabel = "Stop"
		if result.CoastTargetAge != nil {
			title += fmt.Sprintf(" (retire at %d)", *result.CoastTargetAge)
		}
	}
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "Policy: %s   Success threshold: %s\n", result.Policy, percent(result.SuccessThreshold))
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 86))

	fmt.Fprintf(&b, "%-5s %-9s %-14s %-14s %-14s %-14s %-8s\n",
		ageLabel, "Success", "Pot@Ret P50", "Pot@Ret P10", "Terminal P50", "Terminal P10", "MinInc")
	for _, r := range result.AgeResults {
		marker := " "
		if result.SelectedAge != nil && r.RetirementAge == *result.SelectedAge {
			marker = "*"
		} else if r.RetirementAge == result.BestAge {
			marker = "+"
		}
		fmt.Fprintf(&b, "%-5s %-9s %-14s %-14s %-14s %-14s %-8s\n",
			fmt.Sprintf("%d%s", r.RetirementAge, marker),
			percent(r.SuccessRate),
			money(r.MedianRetirementTotal),
			money(r.P10RetirementTotal),
			money(r.MedianTerminalTotal),
			money(r.P10TerminalTotal),
			r.P10MinIncomeRatio.StringFixed(2))
	}

	b.WriteString("\n")
	if result.SelectedAge != nil {
		fmt.Fprintf(&b, "Selected age (earliest meeting threshold): %d\n", *result.SelectedAge)
	} else {
		b.WriteString("No candidate age meets the success threshold.\n")
	}
	fmt.Fprintf(&b, "Best age (highest success rate): %d\n", result.BestAge)
	fmt.Fprintf(&b, "Cashflow trace: candidate %d, retire %d, contributions stop %d (%d years)\n",
		result.Cashflow.CandidateAge, result.Cashflow.RetirementAge,
		result.Cashflow.ContributionStopAge, len(result.Cashflow.Years))

	return []byte(b.String()), nil
}

// FormatGoalResult renders a goal solver outcome for the console.
func FormatGoalResult(result *domain.GoalSolveResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "GOAL SOLVER: %s @ age %d (threshold %s)\n",
		result.GoalType, result.TargetRetirementAge, percent(result.TargetSuccessThreshold))
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 60))

	if !result.Feasible {
		fmt.Fprintf(&b, "INFEASIBLE: %s\n", result.Message)
		return b.String()
	}

	if result.SolvedValue != nil {
		fmt.Fprintf(&b, "Solved value: %s\n", money(*result.SolvedValue))
	}
	if result.SolvedContributions != nil {
		fmt.Fprintf(&b, "  ISA %s / taxable %s / pension %s\n",
			money(result.SolvedContributions.Isa),
			money(result.SolvedContributions.Taxable),
			money(result.SolvedContributions.Pension))
	}
	if result.AchievedSuccessRate != nil && result.AchievedSuccessCI != nil {
		fmt.Fprintf(&b, "Achieved success rate: %s (±%s)\n",
			percent(*result.AchievedSuccessRate), percent(*result.AchievedSuccessCI))
	}
	fmt.Fprintf(&b, "Converged: %v after %d iterations\n", result.Converged, len(result.Iterations))
	fmt.Fprintf(&b, "%s\n", result.Message)

	for _, it := range result.Iterations {
		fmt.Fprintf(&b, "  #%-3d [%s, %s] candidate %s -> %s ±%s\n",
			it.Iteration,
			money(it.LowerBound), money(it.UpperBound), money(it.CandidateValue),
			percent(it.SuccessRate), percent(it.SuccessCIHalfWidth))
	}
	return b.String()
}
