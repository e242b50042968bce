package usecase

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadbase/internal/entity"
	"github.com/xavierca1/leadbase/internal/infra/memstore"
	"github.com/xavierca1/leadbase/internal/leadcsv"
)

func seedRepo(t *testing.T) *memstore.LeadRepository {
	t.Helper()
	ctx := context.Background()
	repo := memstore.NewLeadRepository()

	day := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	batches := []struct {
		campaign string
		leads    []entity.Lead
	}{
		{"Webinar", []entity.Lead{
			{Email: "ana@acme.com", DisplayName: "Ana Silva", SourceColumns: []string{"Email", "Company"}, SourceData: map[string]string{"Email": "ana@acme.com", "Company": "Acme"}},
			{Email: "bob@globex.com", DisplayName: "Bob", SourceColumns: []string{"Email", "Company"}, SourceData: map[string]string{"Email": "bob@globex.com", "Company": "Globex"}},
		}},
		{"Trade Show", []entity.Lead{
			{Email: "cy@acme.com", DisplayName: "Cy", SourceColumns: []string{"E-mail", "Phone"}, SourceData: map[string]string{"E-mail": "cy@acme.com", "Phone": "555"}},
		}},
	}
	for i, b := range batches {
		added := day.AddDate(0, 0, i)
		repo.Now = func() time.Time { return added }
		_, err := repo.UpsertLeads(ctx, b.leads, b.campaign)
		require.NoError(t, err)
	}
	return repo
}

func TestNormalizeFilters(t *testing.T) {
	start := time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)

	f, err := NormalizeFilters(entity.SearchFilters{
		Query:     "  acme ",
		Campaigns: []string{" Webinar", "", "Webinar"},
		StartDate: &start,
		EndDate:   &end,
		PageSize:  5000,
	})
	require.NoError(t, err)

	assert.Equal(t, "acme", f.Query)
	assert.Equal(t, []string{"Webinar"}, f.Campaigns)
	assert.Nil(t, f.ExcludeCampaigns)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), *f.StartDate)
	assert.Equal(t, time.Date(2024, 1, 6, 23, 59, 59, 999999999, time.UTC), *f.EndDate)

	f, err = NormalizeFilters(entity.SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, f.PageSize)

	_, err = NormalizeFilters(entity.SearchFilters{StartDate: &end, EndDate: &start})
	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, CodeInvalidFilter, de.Code)
}

func TestSearchEndDateIsInclusive(t *testing.T) {
	uc := NewSearchLeadsUseCase(seedRepo(t))
	day := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)

	res, err := uc.Execute(context.Background(), entity.SearchFilters{StartDate: &day, EndDate: &day})
	require.NoError(t, err)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "cy@acme.com", res.Leads[0].Email)
}

func TestSearchByCampaign(t *testing.T) {
	uc := NewSearchLeadsUseCase(seedRepo(t))

	res, err := uc.Execute(context.Background(), entity.SearchFilters{Query: "ACME", ExcludeCampaigns: []string{"Trade Show"}})
	require.NoError(t, err)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "ana@acme.com", res.Leads[0].Email)
	assert.Equal(t, 1, res.CurrentPage)
}

func TestDeleteThenSearchReturnsNothing(t *testing.T) {
	ctx := context.Background()
	repo := seedRepo(t)
	manage := NewManageLeadsUseCase(repo, nil, nil, nil)
	search := NewSearchLeadsUseCase(repo)

	n, err := manage.Delete(ctx, " ANA@acme.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, err := search.Execute(ctx, entity.SearchFilters{Query: "ana@acme.com"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Leads)
}

func TestFilterSnapshot(t *testing.T) {
	leads := []entity.Lead{
		{Email: "ana@acme.com", DisplayName: "Ana Silva", Campaigns: []string{"Webinar"}},
		{Email: "bob@globex.com", DisplayName: "Bob", Campaigns: []string{"Trade Show"}},
	}

	assert.Len(t, FilterSnapshot(leads, ""), 2)
	assert.Len(t, FilterSnapshot(leads, "  "), 2)
	assert.Equal(t, "ana@acme.com", FilterSnapshot(leads, "SILVA")[0].Email)
	assert.Equal(t, "bob@globex.com", FilterSnapshot(leads, "globex")[0].Email)
	assert.Equal(t, "bob@globex.com", FilterSnapshot(leads, "trade")[0].Email)
	assert.Empty(t, FilterSnapshot(leads, "zzz"))
}

func TestSortLeads(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	leads := []entity.Lead{
		{Email: "b@x.com", DisplayName: "zed", DateAdded: base},
		{Email: "a@x.com", DisplayName: "Amy", DateAdded: base.Add(time.Hour)},
		{Email: "c@x.com", DisplayName: "bea", DateAdded: base},
	}

	require.NoError(t, SortLeads(leads, SortByDisplayName, false))
	assert.Equal(t, []string{"a@x.com", "c@x.com", "b@x.com"}, emailList(leads))

	require.NoError(t, SortLeads(leads, SortByDateAdded, true))
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, emailList(leads))

	require.NoError(t, SortLeads(leads, SortByEmail, true))
	assert.Equal(t, []string{"c@x.com", "b@x.com", "a@x.com"}, emailList(leads))

	assert.Error(t, SortLeads(leads, "phone", false))
}

func TestBrowse(t *testing.T) {
	uc := NewSearchLeadsUseCase(seedRepo(t))

	leads, err := uc.Browse(context.Background(), "acme", SortByEmail, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@acme.com", "cy@acme.com"}, emailList(leads))
}

func emailList(leads []entity.Lead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.Email
	}
	return out
}

func newExportUseCase(repo entity.LeadRepository, cache StatsCache) *ExportLeadsUseCase {
	uc := NewExportLeadsUseCase(repo, cache, nil)
	uc.Now = func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) }
	return uc
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := seedRepo(t)
	uc := newExportUseCase(repo, nil)

	for _, format := range []ExportFormat{FormatAll, FormatCore, FormatEmailOnly} {
		t.Run(string(format), func(t *testing.T) {
			out, err := uc.Execute(ctx, ExportLeadsInput{Format: format})
			require.NoError(t, err)
			assert.Equal(t, "leads-export-2024-02-01.csv", out.Filename)
			assert.Equal(t, 3, out.Count)

			table, err := leadcsv.Parse(bytes.NewReader(out.Content))
			require.NoError(t, err)

			var emails []string
			for _, row := range table.Rows {
				for _, h := range table.Headers {
					if v := row[h]; IsValidEmail(v) {
						emails = append(emails, NormalizeEmail(v))
						break
					}
				}
			}
			sort.Strings(emails)
			assert.Equal(t, []string{"ana@acme.com", "bob@globex.com", "cy@acme.com"}, emails)
		})
	}
}

func TestBuildExportShapes(t *testing.T) {
	added := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	leads := []entity.Lead{
		{
			Email: "ana@acme.com", DisplayName: "Ana", Campaigns: []string{"A", "B"},
			DateAdded: added, LastUpdated: added,
			SourceColumns: []string{"Email", "Company"},
			SourceData:    map[string]string{"Email": "ana@acme.com", "Company": "Acme", "notes": "VIP"},
		},
		{
			Email:         "cy@acme.com",
			SourceColumns: []string{"E-mail", "Company"},
			SourceData:    map[string]string{"E-mail": "cy@acme.com", "Company": "Initech"},
		},
	}

	headers, rows := BuildExport(leads, FormatAll)
	assert.Equal(t, []string{"Email", "Company", "E-mail", "notes"}, headers)
	assert.Equal(t, "VIP", rows[0]["notes"])
	assert.Equal(t, "", rows[1]["Email"])

	headers, rows = BuildExport(leads, FormatCore)
	assert.Equal(t, coreHeaders, headers)
	assert.Equal(t, "A; B", rows[0]["campaigns"])
	assert.Equal(t, "2024-01-10T08:00:00Z", rows[0]["date_added"])

	headers, _ = BuildExport(leads, FormatEmailOnly)
	assert.Equal(t, []string{"email"}, headers)
}

func TestExportWithTagAndLabel(t *testing.T) {
	ctx := context.Background()
	repo := seedRepo(t)
	cache := new(MockStatsCache)
	cache.On("Invalidate", mock.Anything).Return(nil).Once()
	uc := newExportUseCase(repo, cache)

	out, err := uc.Execute(ctx, ExportLeadsInput{
		Filters:     entity.SearchFilters{Campaigns: []string{"Webinar"}},
		Format:      FormatCore,
		Label:       "Webinar Follow Up",
		TagCampaign: "Exported Q1",
	})
	require.NoError(t, err)

	assert.Equal(t, "webinar-follow-up-2024-02-01.csv", out.Filename)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, int64(2), out.Tagged)
	assert.Contains(t, string(out.Content), "Webinar; Exported Q1")

	lead, _ := repo.Get(ctx, "bob@globex.com")
	assert.Equal(t, []string{"Webinar", "Exported Q1"}, lead.Campaigns)
	cache.AssertExpectations(t)
}

func TestExportNothingToExport(t *testing.T) {
	uc := newExportUseCase(memstore.NewLeadRepository(), nil)

	_, err := uc.Execute(context.Background(), ExportLeadsInput{Format: FormatCore})
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat(" Email-Only ")
	require.NoError(t, err)
	assert.Equal(t, FormatEmailOnly, f)

	f, err = ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCore, f)

	_, err = ParseExportFormat("xlsx")
	assert.True(t, IsDomainError(err))
	assert.True(t, strings.Contains(err.Error(), "xlsx"))
}
