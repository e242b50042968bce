package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/entity"
	"github.com/xavierca1/leadbase/internal/infra/queue"
	"github.com/xavierca1/leadbase/internal/leadcsv"
)

const (
	DefaultMaxUploadBytes int64 = 50 << 20
	PreviewRows                 = 5
)

type PreviewInput struct {
	Filename    string
	Content     io.Reader
	EmailColumn string
}

type PreviewOutput struct {
	Filename    string          `json:"filename"`
	Campaign    string          `json:"campaign"`
	Headers     []string        `json:"headers"`
	Candidates  []string        `json:"email_candidates"`
	Suggested   string          `json:"suggested_email_column,omitempty"`
	EmailColumn string          `json:"email_column,omitempty"`
	Encoding    string          `json:"encoding"`
	Delimiter   string          `json:"delimiter"`
	TotalRows   int             `json:"total_rows"`
	ValidRows   int             `json:"valid_rows"`
	InvalidRows int             `json:"invalid_rows"`
	Sample      []entity.CSVRow `json:"sample"`
}

type IngestLeadsInput struct {
	Filename    string
	Content     io.Reader
	Campaign    string
	EmailColumn string
}

type IngestLeadsOutput struct {
	IngestionID    string        `json:"ingestion_id"`
	Campaign       string        `json:"campaign"`
	EmailColumn    string        `json:"email_column"`
	TotalRows      int           `json:"total_rows"`
	NewCount       int           `json:"new_count"`
	DuplicateCount int           `json:"duplicate_count"`
	InvalidCount   int           `json:"invalid_count"`
	Inserted       int64         `json:"inserted"`
	Updated        int64         `json:"updated"`
	NewEmails      []string      `json:"new_emails"`
	Duplicates     []entity.Lead `json:"duplicates"`
	Invalid        []InvalidRow  `json:"invalid"`
}

type CleanExportOutput struct {
	Filename       string `json:"filename"`
	Campaign       string `json:"campaign"`
	NewCount       int    `json:"new_count"`
	DuplicateCount int    `json:"duplicate_count"`
	InvalidCount   int    `json:"invalid_count"`
	Content        []byte `json:"-"`
}

type IngestLeadsUseCase struct {
	Repo       entity.LeadRepository
	Ingestions entity.IngestionRepository
	Queue      QueueProducerInterface
	Cache      StatsCache
	Metrics    IngestionRecorder
	Logger     *zap.Logger
	MaxBytes   int64
	Now        func() time.Time
}

func NewIngestLeadsUseCase(
	repo entity.LeadRepository,
	ingestions entity.IngestionRepository,
	producer QueueProducerInterface,
	cache StatsCache,
	logger *zap.Logger,
) *IngestLeadsUseCase {
	if producer == nil {
		producer = queue.NoopProducer{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestLeadsUseCase{
		Repo:       repo,
		Ingestions: ingestions,
		Queue:      producer,
		Cache:      cache,
		Metrics:    noopRecorder{},
		Logger:     logger,
		MaxBytes:   DefaultMaxUploadBytes,
		Now:        time.Now,
	}
}

// Preview parses the file and reports what an ingestion would see.
// It never touches the store.
func (uc *IngestLeadsUseCase) Preview(ctx context.Context, in PreviewInput) (*PreviewOutput, error) {
	table, err := uc.readTable(in.Filename, in.Content)
	if err != nil {
		return nil, err
	}

	out := &PreviewOutput{
		Filename:   in.Filename,
		Campaign:   leadcsv.ExtractCampaignName(in.Filename),
		Headers:    table.Headers,
		Candidates: leadcsv.FindEmailColumns(table.Headers),
		Encoding:   table.Encoding,
		Delimiter:  string(table.Delimiter),
		TotalRows:  len(table.Rows),
	}
	out.Suggested, _ = leadcsv.DetectEmailColumn(table.Headers)

	n := len(table.Rows)
	if n > PreviewRows {
		n = PreviewRows
	}
	out.Sample = table.Rows[:n]

	column, err := leadcsv.ResolveEmailColumn(table.Headers, in.EmailColumn)
	if err != nil {
		var ambiguous *leadcsv.AmbiguousColumnError
		if errors.As(err, &ambiguous) {
			// The caller picks from Candidates.
			return out, nil
		}
		return nil, fileError(err)
	}

	out.EmailColumn = column
	for _, row := range table.Rows {
		if IsValidEmail(row[column]) {
			out.ValidRows++
		} else {
			out.InvalidRows++
		}
	}
	return out, nil
}

// Execute parses, classifies and persists one upload. Input errors abort
// before any store call.
func (uc *IngestLeadsUseCase) Execute(ctx context.Context, in IngestLeadsInput) (*IngestLeadsOutput, error) {
	table, err := uc.readTable(in.Filename, in.Content)
	if err != nil {
		return nil, err
	}

	column, err := leadcsv.ResolveEmailColumn(table.Headers, in.EmailColumn)
	if err != nil {
		return nil, fileError(err)
	}

	campaign := strings.TrimSpace(in.Campaign)
	if campaign == "" {
		campaign = leadcsv.ExtractCampaignName(in.Filename)
	}

	class, err := ClassifyDuplicates(ctx, uc.Repo, table.Rows, column)
	if err != nil {
		return nil, err
	}

	var result entity.UpsertResult
	if leads := buildLeads(table.Headers, class.ValidRows(), column); len(leads) > 0 {
		result, err = uc.Repo.UpsertLeads(ctx, leads, campaign)
		if err != nil {
			return nil, storeError("upsert leads", err)
		}
	}

	ing := entity.NewIngestion(in.Filename, campaign, column)
	ing.CreatedAt = uc.Now().UTC()
	ing.TotalRows = len(table.Rows)
	ing.NewRows = len(class.NewRows)
	ing.DuplicateRows = len(class.DuplicateRows)
	ing.InvalidRows = len(class.Invalid)

	log := uc.Logger.With(
		zap.String("ingestion_id", ing.ID),
		zap.String("campaign", campaign),
	)

	// Leads are committed at this point; the rest is best effort.
	if uc.Ingestions != nil {
		if err := uc.Ingestions.Record(ctx, ing); err != nil {
			log.Warn("failed to record ingestion history", zap.Error(err))
		}
	}
	if err := uc.Cache.Invalidate(ctx); err != nil {
		log.Warn("failed to invalidate stats cache", zap.Error(err))
	}
	uc.Metrics.RecordIngestion(ing.NewRows, ing.DuplicateRows, ing.InvalidRows)

	payload := queue.IngestionPayload{
		EventID:       uuid.New().String(),
		IngestionID:   ing.ID,
		Filename:      ing.Filename,
		Campaign:      campaign,
		EmailColumn:   column,
		TotalRows:     ing.TotalRows,
		NewRows:       ing.NewRows,
		DuplicateRows: ing.DuplicateRows,
		InvalidRows:   ing.InvalidRows,
		OccurredAt:    ing.CreatedAt,
	}
	if err := uc.Queue.PublishIngestion(ctx, payload); err != nil {
		log.Error("failed to publish ingestion event", zap.Error(err))
	}

	log.Info("ingestion completed",
		zap.Int("total", ing.TotalRows),
		zap.Int("new", ing.NewRows),
		zap.Int("duplicates", ing.DuplicateRows),
		zap.Int("invalid", ing.InvalidRows),
	)

	return &IngestLeadsOutput{
		IngestionID:    ing.ID,
		Campaign:       campaign,
		EmailColumn:    column,
		TotalRows:      ing.TotalRows,
		NewCount:       ing.NewRows,
		DuplicateCount: ing.DuplicateRows,
		InvalidCount:   ing.InvalidRows,
		Inserted:       result.Inserted,
		Updated:        result.Updated,
		NewEmails:      emailsOf(class.NewRows, column),
		Duplicates:     class.Duplicates,
		Invalid:        class.Invalid,
	}, nil
}

// CleanExport classifies without persisting and returns the new rows as
// a CSV in their original shape.
func (uc *IngestLeadsUseCase) CleanExport(ctx context.Context, in IngestLeadsInput) (*CleanExportOutput, error) {
	table, err := uc.readTable(in.Filename, in.Content)
	if err != nil {
		return nil, err
	}

	column, err := leadcsv.ResolveEmailColumn(table.Headers, in.EmailColumn)
	if err != nil {
		return nil, fileError(err)
	}

	campaign := strings.TrimSpace(in.Campaign)
	if campaign == "" {
		campaign = leadcsv.ExtractCampaignName(in.Filename)
	}

	class, err := ClassifyDuplicates(ctx, uc.Repo, table.Rows, column)
	if err != nil {
		return nil, err
	}
	if len(class.NewRows) == 0 {
		return nil, ErrNothingToExport
	}

	var buf bytes.Buffer
	if err := leadcsv.Write(&buf, table.Headers, class.NewRows); err != nil {
		return nil, err
	}

	return &CleanExportOutput{
		Filename:       leadcsv.ExportFilename(leadcsv.Slug(campaign)+"-duplicates-removed", uc.Now()),
		Campaign:       campaign,
		NewCount:       len(class.NewRows),
		DuplicateCount: len(class.DuplicateRows),
		InvalidCount:   len(class.Invalid),
		Content:        buf.Bytes(),
	}, nil
}

func (uc *IngestLeadsUseCase) readTable(filename string, content io.Reader) (*leadcsv.Table, error) {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".csv") {
		return nil, ErrInvalidFile
	}
	if content == nil {
		return nil, fileError(leadcsv.ErrEmptyFile)
	}

	limit := uc.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}

	data, err := io.ReadAll(io.LimitReader(content, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &DomainError{
			Code:    CodeFileTooLarge,
			Message: fmt.Sprintf("file too large, maximum size is %d MB", limit>>20),
			Err:     ErrFileTooLarge,
		}
	}

	table, err := leadcsv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fileError(err)
	}
	return table, nil
}

func buildLeads(headers []string, rows []entity.CSVRow, column string) []entity.Lead {
	leads := make([]entity.Lead, 0, len(rows))
	for _, row := range rows {
		email := NormalizeEmail(row[column])

		source := make(map[string]string, len(row))
		for k, v := range row {
			source[k] = v
		}

		leads = append(leads, entity.Lead{
			Email:         email,
			DisplayName:   DisplayName(row, email),
			SourceData:    source,
			SourceColumns: headers,
		})
	}
	return leads
}

func emailsOf(rows []entity.CSVRow, column string) []string {
	out := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		email := NormalizeEmail(row[column])
		if !seen[email] {
			seen[email] = true
			out = append(out, email)
		}
	}
	return out
}
