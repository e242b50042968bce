package usecase

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/entity"
	"github.com/xavierca1/leadbase/internal/leadcsv"
)

type ExportFormat string

const (
	FormatAll       ExportFormat = "all"
	FormatCore      ExportFormat = "core"
	FormatEmailOnly ExportFormat = "email-only"

	DefaultExportLabel = "leads-export"
	campaignSeparator  = "; "
)

var coreHeaders = []string{"email", "display_name", "campaigns", "date_added", "last_updated"}

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCore, nil
	case FormatAll, FormatCore, FormatEmailOnly:
		return f, nil
	}
	return "", invalidFilter("unknown export format %q", s)
}

type ExportLeadsInput struct {
	Filters     entity.SearchFilters
	Format      ExportFormat
	Label       string
	TagCampaign string
}

type ExportLeadsOutput struct {
	Filename string `json:"filename"`
	Count    int    `json:"count"`
	Tagged   int64  `json:"tagged"`
	Content  []byte `json:"-"`
}

type ExportLeadsUseCase struct {
	Repo   entity.LeadRepository
	Cache  StatsCache
	Logger *zap.Logger
	Now    func() time.Time
}

func NewExportLeadsUseCase(repo entity.LeadRepository, cache StatsCache, logger *zap.Logger) *ExportLeadsUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportLeadsUseCase{Repo: repo, Cache: cache, Logger: logger, Now: time.Now}
}

func (uc *ExportLeadsUseCase) Execute(ctx context.Context, in ExportLeadsInput) (*ExportLeadsOutput, error) {
	format := in.Format
	if format == "" {
		format = FormatCore
	}
	if _, err := ParseExportFormat(string(format)); err != nil {
		return nil, err
	}

	filters, err := NormalizeFilters(in.Filters)
	if err != nil {
		return nil, err
	}
	filters.All = true

	res, err := uc.Repo.Search(ctx, filters)
	if err != nil {
		return nil, storeError("export search", err)
	}
	if len(res.Leads) == 0 {
		return nil, ErrNothingToExport
	}
	leads := res.Leads

	var tagged int64
	if tag := strings.TrimSpace(in.TagCampaign); tag != "" {
		emails := make([]string, len(leads))
		for i := range leads {
			emails[i] = leads[i].Email
		}
		tagged, err = uc.Repo.AddCampaign(ctx, emails, tag)
		if err != nil {
			return nil, storeError("tag exported leads", err)
		}
		for i := range leads {
			if !leads[i].HasCampaign(tag) {
				leads[i].Campaigns = append(leads[i].Campaigns, tag)
			}
		}
		if err := uc.Cache.Invalidate(ctx); err != nil {
			uc.Logger.Warn("failed to invalidate stats cache", zap.Error(err))
		}
	}

	headers, rows := BuildExport(leads, format)

	var buf bytes.Buffer
	if err := leadcsv.Write(&buf, headers, rows); err != nil {
		return nil, err
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = DefaultExportLabel
	}

	uc.Logger.Info("leads exported",
		zap.String("format", string(format)),
		zap.Int("count", len(leads)),
		zap.Int64("tagged", tagged),
	)

	return &ExportLeadsOutput{
		Filename: leadcsv.ExportFilename(label, uc.Now()),
		Count:    len(leads),
		Tagged:   tagged,
		Content:  buf.Bytes(),
	}, nil
}

// BuildExport shapes leads into CSV headers and rows for format.
func BuildExport(leads []entity.Lead, format ExportFormat) ([]string, []entity.CSVRow) {
	rows := make([]entity.CSVRow, 0, len(leads))

	switch format {
	case FormatEmailOnly:
		for _, l := range leads {
			rows = append(rows, entity.CSVRow{"email": l.Email})
		}
		return []string{"email"}, rows

	case FormatAll:
		headers := sourceHeaders(leads)
		for _, l := range leads {
			row := make(entity.CSVRow, len(l.SourceData))
			for k, v := range l.SourceData {
				row[k] = v
			}
			if len(row) == 0 {
				row["email"] = l.Email
			}
			rows = append(rows, row)
		}
		return headers, rows
	}

	for _, l := range leads {
		rows = append(rows, entity.CSVRow{
			"email":        l.Email,
			"display_name": l.DisplayName,
			"campaigns":    strings.Join(l.Campaigns, campaignSeparator),
			"date_added":   l.DateAdded.Format(time.RFC3339),
			"last_updated": l.LastUpdated.Format(time.RFC3339),
		})
	}
	return coreHeaders, rows
}

// sourceHeaders unions the original columns in first-seen order. Keys
// without a recorded column order are appended sorted, notes last.
func sourceHeaders(leads []entity.Lead) []string {
	var headers []string
	seen := make(map[string]bool)
	add := func(h string) {
		if !seen[h] {
			seen[h] = true
			headers = append(headers, h)
		}
	}

	hasNotes := false
	for _, l := range leads {
		for _, h := range l.SourceColumns {
			if h != entity.NotesField {
				add(h)
			}
		}
		var extra []string
		for k := range l.SourceData {
			if k == entity.NotesField {
				hasNotes = hasNotes || l.SourceData[k] != ""
				continue
			}
			if !seen[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			add(k)
		}
	}
	if hasNotes {
		add(entity.NotesField)
	}
	if len(headers) == 0 {
		headers = []string{"email"}
	}
	return headers
}
