package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xavierca1/leadbase/internal/entity"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// Sortable lead table columns.
const (
	SortByEmail       = "email"
	SortByDisplayName = "display_name"
	SortByDateAdded   = "date_added"
)

type SearchLeadsUseCase struct {
	Repo entity.LeadRepository
}

func NewSearchLeadsUseCase(repo entity.LeadRepository) *SearchLeadsUseCase {
	return &SearchLeadsUseCase{Repo: repo}
}

func (uc *SearchLeadsUseCase) Execute(ctx context.Context, filters entity.SearchFilters) (*entity.SearchResult, error) {
	f, err := NormalizeFilters(filters)
	if err != nil {
		return nil, err
	}

	res, err := uc.Repo.Search(ctx, f)
	if err != nil {
		return nil, storeError("search", err)
	}
	return res, nil
}

// Browse loads the full snapshot and filters it locally, the way the lead
// table does between refreshes.
func (uc *SearchLeadsUseCase) Browse(ctx context.Context, query, sortColumn string, desc bool) ([]entity.Lead, error) {
	all, err := uc.Repo.ListAll(ctx)
	if err != nil {
		return nil, storeError("list leads", err)
	}

	leads := FilterSnapshot(all, query)
	if sortColumn == "" {
		return leads, nil
	}
	if err := SortLeads(leads, sortColumn, desc); err != nil {
		return nil, err
	}
	return leads, nil
}

// NormalizeFilters applies paging defaults, trims labels and turns EndDate
// into an inclusive end-of-day bound.
func NormalizeFilters(f entity.SearchFilters) (entity.SearchFilters, error) {
	f.Query = strings.TrimSpace(f.Query)
	f.Campaigns = cleanLabels(f.Campaigns)
	f.ExcludeCampaigns = cleanLabels(f.ExcludeCampaigns)

	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize <= 0:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}

	if f.StartDate != nil {
		start := StartOfDay(*f.StartDate)
		f.StartDate = &start
	}
	if f.EndDate != nil {
		end := EndOfDay(*f.EndDate)
		f.EndDate = &end
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return f, invalidFilter("start date %s is after end date %s",
			f.StartDate.Format(time.DateOnly), f.EndDate.Format(time.DateOnly))
	}
	return f, nil
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func cleanLabels(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FilterSnapshot keeps leads whose email, local part, domain, display name
// or any campaign contains query, case-insensitively.
func FilterSnapshot(leads []entity.Lead, query string) []entity.Lead {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]entity.Lead, 0, len(leads))
	if q == "" {
		return append(out, leads...)
	}

	for _, l := range leads {
		if matchesSnapshot(&l, q) {
			out = append(out, l)
		}
	}
	return out
}

func matchesSnapshot(l *entity.Lead, q string) bool {
	local, domain := l.EmailParts()
	for _, field := range []string{l.Email, local, domain, l.DisplayName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, c := range l.Campaigns {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}

// SortLeads sorts in place. Ties fall back to email so the order is stable.
func SortLeads(leads []entity.Lead, column string, desc bool) error {
	var compare func(a, b *entity.Lead) int
	switch column {
	case SortByEmail:
		compare = func(a, b *entity.Lead) int { return strings.Compare(a.Email, b.Email) }
	case SortByDisplayName:
		compare = func(a, b *entity.Lead) int {
			return strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName))
		}
	case SortByDateAdded:
		compare = func(a, b *entity.Lead) int { return a.DateAdded.Compare(b.DateAdded) }
	default:
		return invalidFilter("cannot sort by %q", column)
	}

	sort.SliceStable(leads, func(i, j int) bool {
		c := compare(&leads[i], &leads[j])
		if desc {
			c = -c
		}
		if c == 0 {
			return leads[i].Email < leads[j].Email
		}
		return c < 0
	})
	return nil
}
