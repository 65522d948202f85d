// Package site exposes site-wide signals read from the CMS.
package site

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// Querier runs a CMS query. *cms.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, query string, params map[string]any, out any) error
}

const currentYearQuery = `*[_type == "siteSettings"][0].currentYear`

// YearSource answers "which conference year is current". The CMS site
// settings win; the configured year is used when the CMS is absent, fails,
// or has no value.
type YearSource struct {
	cms      Querier
	fallback string
	logger   *slog.Logger
}

// NewYearSource creates a year source. cms may be nil.
func NewYearSource(cms Querier, fallback string, logger *slog.Logger) *YearSource {
	return &YearSource{cms: cms, fallback: fallback, logger: logger}
}

// CurrentYear returns the current conference year as a string.
func (y *YearSource) CurrentYear(ctx context.Context) string {
	if y.cms == nil {
		return y.fallback
	}

	var year any
	if err := y.cms.Query(ctx, currentYearQuery, nil, &year); err != nil {
		y.logger.WarnContext(ctx, "current year lookup failed, using configured year",
			"error", err,
			"fallback", y.fallback,
		)
		return y.fallback
	}

	switch v := year.(type) {
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	case float64:
		if v > 0 {
			return strconv.Itoa(int(v))
		}
	}
	return y.fallback
}
