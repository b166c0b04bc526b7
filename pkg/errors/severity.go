// Package errors classifies engine errors for reporting: severity for log
// levels, recoverability for operators, and process exit codes for the CLI.
package errors

import (
	stderrors "errors"

	"utility-cost/internal/billing"
	"utility-cost/internal/usage"
	"utility-cost/pkg/tariff"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// CLI exit codes, one per error class.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitBadTariff    = 2
	ExitBadUsageData = 3
	ExitPrecondition = 4
)

// Classification describes how an engine error should be reported.
type Classification struct {
	Code        string
	Severity    Severity
	ExitCode    int
	Recoverable bool
}

// Classify maps an error to its reporting classification. Tariff
// configuration and usage data-quality problems are recoverable by fixing
// the input; precondition violations indicate a caller bug and are not.
func Classify(err error) Classification {
	var ce *tariff.ConfigurationError
	if stderrors.As(err, &ce) {
		return Classification{
			Code:        "TARIFF_CONFIGURATION",
			Severity:    SeverityError,
			ExitCode:    ExitBadTariff,
			Recoverable: true,
		}
	}

	var qe *usage.DataQualityError
	if stderrors.As(err, &qe) {
		return Classification{
			Code:        "USAGE_DATA_QUALITY",
			Severity:    SeverityError,
			ExitCode:    ExitBadUsageData,
			Recoverable: true,
		}
	}

	var pe *billing.PreconditionError
	if stderrors.As(err, &pe) {
		return Classification{
			Code:        "BILLING_PRECONDITION",
			Severity:    SeverityFatal,
			ExitCode:    ExitPrecondition,
			Recoverable: false,
		}
	}

	return Classification{
		Code:        "INTERNAL",
		Severity:    SeverityFatal,
		ExitCode:    ExitFailure,
		Recoverable: false,
	}
}
