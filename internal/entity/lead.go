package entity

import (
	"context"
	"strings"
	"time"
)

// CSVRow is one uploaded line keyed by column header.
type CSVRow map[string]string

// NotesField is the SourceData key holding user notes.
const NotesField = "notes"

type Lead struct {
	Email         string            `json:"email"`
	DisplayName   string            `json:"display_name"`
	Campaigns     []string          `json:"campaigns"`
	DateAdded     time.Time         `json:"date_added"`
	LastUpdated   time.Time         `json:"last_updated"`
	SourceData    map[string]string `json:"source_data"`
	SourceColumns []string          `json:"source_columns,omitempty"`
}

// HasCampaign reports whether the lead is already tagged with campaign.
func (l *Lead) HasCampaign(campaign string) bool {
	for _, c := range l.Campaigns {
		if c == campaign {
			return true
		}
	}
	return false
}

// Notes returns the user notes stored alongside the original row.
func (l *Lead) Notes() string {
	if l.SourceData == nil {
		return ""
	}
	return l.SourceData[NotesField]
}

// EmailParts splits the email into local part and domain.
func (l *Lead) EmailParts() (local, domain string) {
	local, domain, _ = strings.Cut(l.Email, "@")
	return local, domain
}

type SearchFilters struct {
	Query            string     `json:"query,omitempty"`
	Campaigns        []string   `json:"campaigns,omitempty"`
	ExcludeCampaigns []string   `json:"exclude_campaigns,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Page             int        `json:"page"`
	PageSize         int        `json:"page_size"`

	// All disables pagination; used by exports.
	All bool `json:"-"`
}

type SearchResult struct {
	Leads       []Lead `json:"leads"`
	Total       int64  `json:"total"`
	Pages       int    `json:"pages"`
	CurrentPage int    `json:"current_page"`
}

type Stats struct {
	TotalLeads     int64 `json:"total_leads"`
	LeadsThisWeek  int64 `json:"leads_this_week"`
	LeadsThisMonth int64 `json:"leads_this_month"`
	TotalCampaigns int64 `json:"total_campaigns"`
}

type UpsertResult struct {
	Inserted int64 `json:"inserted"`
	Updated  int64 `json:"updated"`
}

// LeadFinder is the batched "emails in set" read used by the duplicate classifier.
type LeadFinder interface {
	FindByEmails(ctx context.Context, emails []string) ([]Lead, error)
}

type LeadRepository interface {
	LeadFinder

	Get(ctx context.Context, email string) (*Lead, error)
	// UpsertLeads inserts new leads and unions campaign into existing ones.
	// It must never fail because a row already exists.
	UpsertLeads(ctx context.Context, leads []Lead, campaign string) (UpsertResult, error)
	AddCampaign(ctx context.Context, emails []string, campaign string) (int64, error)
	UpdateNotes(ctx context.Context, email, notes string) error

	Search(ctx context.Context, filters SearchFilters) (*SearchResult, error)
	ListAll(ctx context.Context) ([]Lead, error)
	Campaigns(ctx context.Context) ([]string, error)
	Stats(ctx context.Context, weekStart, monthStart time.Time) (*Stats, error)
	Count(ctx context.Context) (int64, error)
	EstimateCount(ctx context.Context) (int64, error)

	Delete(ctx context.Context, emails []string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}
