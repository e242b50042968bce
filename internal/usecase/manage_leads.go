package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/entity"
)

// ClearAllConfirmation must be typed verbatim before every lead is deleted.
const ClearAllConfirmation = "DELETE ALL LEADS"

const DefaultIngestionListLimit = 50

type CountOutput struct {
	Exact       int64 `json:"exact"`
	Approximate int64 `json:"approximate"`
}

type ManageLeadsUseCase struct {
	Repo       entity.LeadRepository
	Ingestions entity.IngestionRepository
	Cache      StatsCache
	Logger     *zap.Logger
}

func NewManageLeadsUseCase(repo entity.LeadRepository, ingestions entity.IngestionRepository, cache StatsCache, logger *zap.Logger) *ManageLeadsUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManageLeadsUseCase{Repo: repo, Ingestions: ingestions, Cache: cache, Logger: logger}
}

func (uc *ManageLeadsUseCase) Get(ctx context.Context, email string) (*entity.Lead, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, invalidInput("email is required")
	}
	lead, err := uc.Repo.Get(ctx, email)
	if err != nil {
		return nil, storeError("get lead", err)
	}
	return lead, nil
}

// Delete removes the given leads and returns how many existed.
func (uc *ManageLeadsUseCase) Delete(ctx context.Context, emails ...string) (int64, error) {
	normalized := normalizeEmails(emails)
	if len(normalized) == 0 {
		return 0, invalidInput("at least one email is required")
	}

	n, err := uc.Repo.Delete(ctx, normalized)
	if err != nil {
		return 0, storeError("delete leads", err)
	}

	uc.invalidate(ctx)
	uc.Logger.Info("leads deleted", zap.Int("requested", len(normalized)), zap.Int64("deleted", n))
	return n, nil
}

func (uc *ManageLeadsUseCase) UpdateNotes(ctx context.Context, email, notes string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return invalidInput("email is required")
	}
	if err := uc.Repo.UpdateNotes(ctx, email, strings.TrimSpace(notes)); err != nil {
		return storeError("update notes", err)
	}
	return nil
}

// TagLeads adds campaign to existing leads. Unknown emails are ignored.
func (uc *ManageLeadsUseCase) TagLeads(ctx context.Context, emails []string, campaign string) (int64, error) {
	campaign = strings.TrimSpace(campaign)
	if campaign == "" {
		return 0, invalidInput("campaign is required")
	}
	normalized := normalizeEmails(emails)
	if len(normalized) == 0 {
		return 0, invalidInput("at least one email is required")
	}

	n, err := uc.Repo.AddCampaign(ctx, normalized, campaign)
	if err != nil {
		return 0, storeError("tag leads", err)
	}

	uc.invalidate(ctx)
	return n, nil
}

func (uc *ManageLeadsUseCase) ClearAll(ctx context.Context, confirmation string) (int64, error) {
	if confirmation != ClearAllConfirmation {
		return 0, ErrConfirmationRequired
	}

	n, err := uc.Repo.DeleteAll(ctx)
	if err != nil {
		return 0, storeError("delete all leads", err)
	}

	uc.invalidate(ctx)
	uc.Logger.Warn("all leads deleted", zap.Int64("deleted", n))
	return n, nil
}

func (uc *ManageLeadsUseCase) Campaigns(ctx context.Context) ([]string, error) {
	campaigns, err := uc.Repo.Campaigns(ctx)
	if err != nil {
		return nil, storeError("list campaigns", err)
	}
	if campaigns == nil {
		campaigns = []string{}
	}
	return campaigns, nil
}

func (uc *ManageLeadsUseCase) Count(ctx context.Context) (*CountOutput, error) {
	exact, err := uc.Repo.Count(ctx)
	if err != nil {
		return nil, storeError("count leads", err)
	}
	approx, err := uc.Repo.EstimateCount(ctx)
	if err != nil {
		return nil, storeError("estimate lead count", err)
	}
	return &CountOutput{Exact: exact, Approximate: approx}, nil
}

func (uc *ManageLeadsUseCase) ListIngestions(ctx context.Context, limit int) ([]entity.Ingestion, error) {
	if uc.Ingestions == nil {
		return []entity.Ingestion{}, nil
	}
	if limit <= 0 {
		limit = DefaultIngestionListLimit
	}
	list, err := uc.Ingestions.List(ctx, limit)
	if err != nil {
		return nil, storeError("list ingestions", err)
	}
	if list == nil {
		list = []entity.Ingestion{}
	}
	return list, nil
}

func (uc *ManageLeadsUseCase) invalidate(ctx context.Context) {
	if err := uc.Cache.Invalidate(ctx); err != nil {
		uc.Logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	seen := make(map[string]bool, len(emails))
	for _, e := range emails {
		e = NormalizeEmail(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
