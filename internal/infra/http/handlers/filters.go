package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/leadbase/internal/entity"
	"github.com/xavierca1/leadbase/internal/usecase"
)

// parseFilters reads lead search filters from query parameters. Dates are
// YYYY-MM-DD in UTC.
func parseFilters(q url.Values) (entity.SearchFilters, error) {
	f := entity.SearchFilters{
		Query:            q.Get("q"),
		Campaigns:        q["campaign"],
		ExcludeCampaigns: q["exclude_campaign"],
	}

	var err error
	if f.StartDate, err = parseDate(q, "start_date"); err != nil {
		return f, err
	}
	if f.EndDate, err = parseDate(q, "end_date"); err != nil {
		return f, err
	}
	if f.Page, err = parseInt(q, "page"); err != nil {
		return f, err
	}
	if f.PageSize, err = parseInt(q, "page_size"); err != nil {
		return f, err
	}
	return f, nil
}

func parseDate(q url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, filterError("%s must be YYYY-MM-DD, got %q", key, v)
	}
	return &t, nil
}

func parseInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, filterError("%s must be a positive number, got %q", key, v)
	}
	return n, nil
}

func filterError(format string, args ...any) error {
	return &usecase.DomainError{Code: usecase.CodeInvalidFilter, Message: fmt.Sprintf(format, args...)}
}
