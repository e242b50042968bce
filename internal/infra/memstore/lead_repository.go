// Package memstore keeps leads in process memory. It follows the same
// contract as the Postgres repositories and backs tests and local runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/leadbase/internal/entity"
)

type LeadRepository struct {
	mu    sync.RWMutex
	leads map[string]*entity.Lead
	Now   func() time.Time

	// FindCalls counts batched lookups.
	FindCalls int
}

func NewLeadRepository() *LeadRepository {
	return &LeadRepository{
		leads: make(map[string]*entity.Lead),
		Now:   time.Now,
	}
}

func (r *LeadRepository) FindByEmails(ctx context.Context, emails []string) ([]entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++

	var out []entity.Lead
	seen := make(map[string]bool, len(emails))
	for _, e := range emails {
		if seen[e] {
			continue
		}
		seen[e] = true
		if l, ok := r.leads[e]; ok {
			out = append(out, clone(l))
		}
	}
	return out, nil
}

func (r *LeadRepository) Get(ctx context.Context, email string) (*entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.leads[email]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	c := clone(l)
	return &c, nil
}

func (r *LeadRepository) UpsertLeads(ctx context.Context, leads []entity.Lead, campaign string) (entity.UpsertResult, error) {
	var res entity.UpsertResult
	if err := ctx.Err(); err != nil {
		return res, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Now().UTC()
	batch := make(map[string]bool, len(leads))
	for _, in := range leads {
		if batch[in.Email] {
			continue
		}
		batch[in.Email] = true

		if existing, ok := r.leads[in.Email]; ok {
			if campaign != "" && !existing.HasCampaign(campaign) {
				existing.Campaigns = append(existing.Campaigns, campaign)
			}
			existing.LastUpdated = now
			res.Updated++
			continue
		}

		l := clone(&in)
		l.Campaigns = nil
		if campaign != "" {
			l.Campaigns = []string{campaign}
		}
		l.DateAdded = now
		l.LastUpdated = now
		if l.SourceData == nil {
			l.SourceData = map[string]string{}
		}
		r.leads[l.Email] = &l
		res.Inserted++
	}
	return res, nil
}

func (r *LeadRepository) AddCampaign(ctx context.Context, emails []string, campaign string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Now().UTC()
	var n int64
	for _, e := range emails {
		l, ok := r.leads[e]
		if !ok || l.HasCampaign(campaign) {
			continue
		}
		l.Campaigns = append(l.Campaigns, campaign)
		l.LastUpdated = now
		n++
	}
	return n, nil
}

func (r *LeadRepository) UpdateNotes(ctx context.Context, email, notes string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[email]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if l.SourceData == nil {
		l.SourceData = map[string]string{}
	}
	l.SourceData[entity.NotesField] = notes
	l.LastUpdated = r.Now().UTC()
	return nil
}

func (r *LeadRepository) Search(ctx context.Context, f entity.SearchFilters) (*entity.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	matched := make([]entity.Lead, 0)
	for _, l := range r.leads {
		if matches(l, f) {
			matched = append(matched, clone(l))
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(matched)

	total := len(matched)
	res := &entity.SearchResult{Total: int64(total), CurrentPage: 1}
	if f.All || f.PageSize <= 0 {
		res.Leads = matched
		if total > 0 {
			res.Pages = 1
		}
		return res, nil
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	res.CurrentPage = page
	res.Pages = (total + f.PageSize - 1) / f.PageSize

	start := (page - 1) * f.PageSize
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	res.Leads = matched[start:end]
	return res, nil
}

func matches(l *entity.Lead, f entity.SearchFilters) bool {
	if f.Query != "" && !strings.Contains(l.Email, strings.ToLower(f.Query)) {
		return false
	}
	if len(f.Campaigns) > 0 && !overlaps(l.Campaigns, f.Campaigns) {
		return false
	}
	if len(f.ExcludeCampaigns) > 0 && overlaps(l.Campaigns, f.ExcludeCampaigns) {
		return false
	}
	if f.StartDate != nil && l.DateAdded.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && l.DateAdded.After(*f.EndDate) {
		return false
	}
	return true
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func (r *LeadRepository) ListAll(ctx context.Context) ([]entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]entity.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, clone(l))
	}
	r.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func (r *LeadRepository) Campaigns(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]bool)
	for _, l := range r.leads {
		for _, c := range l.Campaigns {
			set[c] = true
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (r *LeadRepository) Stats(ctx context.Context, weekStart, monthStart time.Time) (*entity.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &entity.Stats{TotalLeads: int64(len(r.leads))}
	campaigns := make(map[string]bool)
	for _, l := range r.leads {
		if !l.DateAdded.Before(weekStart) {
			s.LeadsThisWeek++
		}
		if !l.DateAdded.Before(monthStart) {
			s.LeadsThisMonth++
		}
		for _, c := range l.Campaigns {
			campaigns[c] = true
		}
	}
	s.TotalCampaigns = int64(len(campaigns))
	return s, nil
}

func (r *LeadRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.leads)), nil
}

func (r *LeadRepository) EstimateCount(ctx context.Context) (int64, error) {
	return r.Count(ctx)
}

func (r *LeadRepository) Delete(ctx context.Context, emails []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, e := range emails {
		if _, ok := r.leads[e]; ok {
			delete(r.leads, e)
			n++
		}
	}
	return n, nil
}

func (r *LeadRepository) DeleteAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.leads))
	r.leads = make(map[string]*entity.Lead)
	return n, nil
}

func sortNewestFirst(leads []entity.Lead) {
	sort.Slice(leads, func(i, j int) bool {
		if !leads[i].DateAdded.Equal(leads[j].DateAdded) {
			return leads[i].DateAdded.After(leads[j].DateAdded)
		}
		return leads[i].Email < leads[j].Email
	})
}

func clone(l *entity.Lead) entity.Lead {
	c := *l
	c.Campaigns = append([]string(nil), l.Campaigns...)
	c.SourceColumns = append([]string(nil), l.SourceColumns...)
	if l.SourceData != nil {
		c.SourceData = make(map[string]string, len(l.SourceData))
		for k, v := range l.SourceData {
			c.SourceData[k] = v
		}
	}
	return c
}
