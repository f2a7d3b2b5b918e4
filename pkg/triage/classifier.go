// Package triage categorizes browser test failures into a fixed taxonomy,
// scores their severity, and decides whether a retry is worthwhile.
package triage

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Category identifies the kind of failure.
type Category string

const (
	CategoryNetwork        Category = "network_error"
	CategoryElementNotFound Category = "element_not_found"
	CategoryTimeout        Category = "timeout_error"
	CategoryNavigation     Category = "navigation_error"
	CategoryJavaScript     Category = "javascript_error"
	CategoryBrowser        Category = "browser_error"
	CategoryValidation     Category = "validation_error"
	CategoryAuthentication Category = "authentication_error"
	CategoryPermission     Category = "permission_error"
	CategoryResource       Category = "resource_error"
	CategoryUnknown        Category = "unknown_error"
)

// Severity ranks how bad a classified error is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ClassifiedError is the structured diagnosis of a raw failure.
type ClassifiedError struct {
	Category         Category               `json:"category"`
	Severity         Severity               `json:"severity"`
	Message          string                 `json:"message"`
	ErrorCode        string                 `json:"error_code"`
	SuggestedFix     string                 `json:"suggested_fix"`
	RetryRecommended bool                   `json:"retry_recommended"`
	Context          map[string]interface{} `json:"context,omitempty"`
}

// categoryPatterns pairs a category with its match patterns. Order matters:
// the first category with a matching pattern wins.
type categoryPatterns struct {
	category Category
	patterns []*regexp.Regexp
}

// Classifier matches raw errors against a fixed pattern table.
type Classifier struct {
	patterns       []categoryPatterns
	noRetry        []*regexp.Regexp
	criticalWords  []string
	lowWords       []string
	severityByCat  map[Category]Severity
	fixByCat       map[Category]string
	codeByCat      map[Category]string
	retryEligible  map[Category]bool
}

// NewClassifier builds a classifier with the standard pattern table.
func NewClassifier() *Classifier {
	compile := func(patterns ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			out = append(out, regexp.MustCompile("(?i)"+p))
		}
		return out
	}

	return &Classifier{
		patterns: []categoryPatterns{
			{CategoryNetwork, compile(
				`net::ERR_.*`,
				`Network request failed`,
				`Connection refused`,
				`DNS_PROBE_FINISHED_NXDOMAIN`,
			)},
			{CategoryElementNotFound, compile(
				`Element .* not found`,
				`No element found matching selector`,
				`Element is not attached to the DOM`,
				`Waiting for selector .* failed`,
			)},
			{CategoryTimeout, compile(
				`Timeout .*`,
				`Navigation timeout`,
				`Page did not load within.*`,
				`Waiting for .* timed out`,
				`exceeded timeout of.*`,
			)},
			{CategoryNavigation, compile(
				`Navigation failed`,
				`Page crashed`,
				`Page not found`,
				`HTTP 404`,
				`HTTP 500`,
				`HTTP 503`,
			)},
			{CategoryJavaScript, compile(
				`JavaScript error`,
				`Script error`,
				`ReferenceError`,
				`TypeError`,
				`SyntaxError`,
				`Evaluation failed`,
			)},
			{CategoryBrowser, compile(
				`Browser closed`,
				`Browser process crashed`,
				`Browser context closed`,
				`Page closed`,
			)},
			{CategoryAuthentication, compile(
				`Authentication failed`,
				`Login required`,
				`Unauthorized`,
				`HTTP 401`,
				`HTTP 403`,
			)},
			{CategoryPermission, compile(
				`Permission denied`,
				`Access denied`,
				`Forbidden`,
				`Not allowed`,
			)},
		},
		noRetry: compile(
			`404`,
			`Authentication failed`,
			`Permission denied`,
			`Invalid selector`,
		),
		criticalWords: []string{"critical", "fatal", "crashed"},
		lowWords:      []string{"warning", "minor"},
		severityByCat: map[Category]Severity{
			CategoryBrowser:        SeverityCritical,
			CategoryNetwork:        SeverityHigh,
			CategoryNavigation:     SeverityHigh,
			CategoryAuthentication: SeverityHigh,
			CategoryPermission:     SeverityHigh,
			CategoryTimeout:        SeverityMedium,
			CategoryElementNotFound: SeverityMedium,
			CategoryJavaScript:     SeverityMedium,
			CategoryResource:       SeverityMedium,
			CategoryUnknown:        SeverityMedium,
			CategoryValidation:     SeverityLow,
		},
		fixByCat: map[Category]string{
			CategoryNetwork:        "Check internet connection and target URL accessibility. Verify firewall settings.",
			CategoryElementNotFound: "Verify element selector is correct. Check if element loads after page interaction. Add explicit waits.",
			CategoryTimeout:        "Increase timeout values. Check page load performance. Verify network stability.",
			CategoryNavigation:     "Verify URL is correct and accessible. Check for redirects or server issues.",
			CategoryJavaScript:     "Review page JavaScript for errors. Check browser console for additional details.",
			CategoryBrowser:        "Restart browser session. Check system resources. Update browser version.",
			CategoryAuthentication: "Verify credentials are correct. Check authentication flow and session management.",
			CategoryPermission:     "Check user permissions and access rights. Verify authorization tokens.",
			CategoryValidation:     "Review input data and validation rules. Check required fields.",
			CategoryResource:       "Check system resources (memory, disk space). Verify file permissions.",
			CategoryUnknown:        "Enable debug logging for more details. Check error logs and stack trace.",
		},
		codeByCat: map[Category]string{
			CategoryNetwork:        "NET",
			CategoryElementNotFound: "ELM",
			CategoryTimeout:        "TMO",
			CategoryNavigation:     "NAV",
			CategoryJavaScript:     "JSE",
			CategoryBrowser:        "BRW",
			CategoryValidation:     "VAL",
			CategoryAuthentication: "AUTH",
			CategoryPermission:     "PERM",
			CategoryResource:       "RES",
			CategoryUnknown:        "UNK",
		},
		retryEligible: map[Category]bool{
			CategoryNetwork:  true,
			CategoryTimeout:  true,
			CategoryResource: true,
		},
	}
}

// Classify turns a raw error into a ClassifiedError. The optional context
// map is attached verbatim and shared with recovery.
func (c *Classifier) Classify(err error, context map[string]interface{}) ClassifiedError {
	message := err.Error()
	typeName := errorTypeName(err)

	category := c.matchCategory(message, typeName)

	return ClassifiedError{
		Category:         category,
		Severity:         c.severity(category, message),
		Message:          message,
		ErrorCode:        c.errorCode(category, typeName),
		SuggestedFix:     c.suggestedFix(category),
		RetryRecommended: c.shouldRetry(category, message),
		Context:          context,
	}
}

// matchCategory scans the pattern table in order, then falls back to
// type-name heuristics, then unknown.
func (c *Classifier) matchCategory(message, typeName string) Category {
	for _, cp := range c.patterns {
		for _, p := range cp.patterns {
			if p.MatchString(message) {
				return cp.category
			}
		}
	}

	switch {
	case strings.Contains(typeName, "TimeoutError"):
		return CategoryTimeout
	case strings.Contains(typeName, "NetworkError"):
		return CategoryNetwork
	case strings.Contains(typeName, "JavaScriptError"):
		return CategoryJavaScript
	}

	return CategoryUnknown
}

// severity looks up the category default and adjusts it by message content.
func (c *Classifier) severity(category Category, message string) Severity {
	base, ok := c.severityByCat[category]
	if !ok {
		base = SeverityMedium
	}

	lower := strings.ToLower(message)
	for _, word := range c.criticalWords {
		if strings.Contains(lower, word) {
			return SeverityCritical
		}
	}
	for _, word := range c.lowWords {
		if strings.Contains(lower, word) {
			return SeverityLow
		}
	}

	return base
}

func (c *Classifier) suggestedFix(category Category) string {
	if fix, ok := c.fixByCat[category]; ok {
		return fix
	}
	return "Review error details and check system configuration."
}

// shouldRetry recommends a retry only for transient categories, and never
// when the message matches a hard-fail pattern. The suppression list keeps
// permanently-broken requests (404s, bad credentials, invalid selectors)
// from retrying forever.
func (c *Classifier) shouldRetry(category Category, message string) bool {
	if !c.retryEligible[category] {
		return false
	}
	for _, p := range c.noRetry {
		if p.MatchString(message) {
			return false
		}
	}
	return true
}

func (c *Classifier) errorCode(category Category, typeName string) string {
	prefix, ok := c.codeByCat[category]
	if !ok {
		prefix = "UNK"
	}

	suffix := typeName
	if len(suffix) > 3 {
		suffix = suffix[:3]
	}
	return fmt.Sprintf("%s_%s", prefix, strings.ToUpper(suffix))
}

// errorTypeName extracts the concrete Go type name of an error, without
// the package qualifier or pointer marker.
func errorTypeName(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return "error"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return "error"
}
