package triage

import (
	"time"

	"github.com/entrhq/verity/pkg/logging"
)

const (
	networkBackoff    = 2 * time.Second
	elementWait       = 1 * time.Second
	timeoutMultiplier = 1.5
)

// Recoverer applies category-specific mitigation before a retry.
type Recoverer struct {
	logger logging.Logger

	// sleep is swappable in tests to avoid real delays.
	sleep func(time.Duration)
}

// NewRecoverer creates a recoverer logging through the given logger.
func NewRecoverer(logger logging.Logger) *Recoverer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recoverer{logger: logger, sleep: time.Sleep}
}

// AttemptRecovery performs best-effort mitigation for the classified error
// and reports whether a retry should follow. Network errors back off for a
// fixed delay, timeout errors scale the remembered timeout in the shared
// context, element-not-found errors insert a short wait. Everything else
// is not recoverable. Never panics; internal failures count as no recovery.
func (r *Recoverer) AttemptRecovery(cerr ClassifiedError, context map[string]interface{}) (recovered bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("recovery attempt panicked", map[string]interface{}{
				"error_code": cerr.ErrorCode,
				"panic":      p,
			})
			recovered = false
		}
	}()

	switch cerr.Category {
	case CategoryNetwork:
		r.sleep(networkBackoff)
		return true

	case CategoryTimeout:
		if context != nil {
			timeout := 30.0
			if v, ok := context["timeout"].(float64); ok {
				timeout = v
			}
			context["timeout"] = timeout * timeoutMultiplier
		}
		return true

	case CategoryElementNotFound:
		r.sleep(elementWait)
		return true
	}

	return false
}

// Statistics summarizes a batch of classified errors.
type Statistics struct {
	TotalErrors        int              `json:"total_errors"`
	CategoryBreakdown  map[Category]int `json:"category_breakdown,omitempty"`
	SeverityBreakdown  map[Severity]int `json:"severity_breakdown,omitempty"`
	RetryRecommended   int              `json:"retry_recommended"`
	MostCommonCategory Category         `json:"most_common_category,omitempty"`
}

// Summarize counts categories, severities, and retry recommendations.
func Summarize(errors []ClassifiedError) Statistics {
	stats := Statistics{TotalErrors: len(errors)}
	if len(errors) == 0 {
		return stats
	}

	stats.CategoryBreakdown = make(map[Category]int)
	stats.SeverityBreakdown = make(map[Severity]int)

	for _, e := range errors {
		stats.CategoryBreakdown[e.Category]++
		stats.SeverityBreakdown[e.Severity]++
		if e.RetryRecommended {
			stats.RetryRecommended++
		}
	}

	best := 0
	for cat, n := range stats.CategoryBreakdown {
		if n > best {
			best = n
			stats.MostCommonCategory = cat
		}
	}

	return stats
}
