package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/leadbase/internal/entity"
)

// upsertChunkSize bounds the JSON payload of a single upsert statement.
const upsertChunkSize = 1000

const leadColumns = `email, display_name, campaigns, source_data, source_columns, date_added, last_updated`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(row scanner) (*entity.Lead, error) {
	var (
		l          entity.Lead
		campaigns  pq.StringArray
		columns    pq.StringArray
		sourceData []byte
	)
	if err := row.Scan(&l.Email, &l.DisplayName, &campaigns, &sourceData, &columns, &l.DateAdded, &l.LastUpdated); err != nil {
		return nil, err
	}

	l.Campaigns = []string(campaigns)
	l.SourceColumns = []string(columns)
	l.SourceData = map[string]string{}
	if len(sourceData) > 0 {
		if err := json.Unmarshal(sourceData, &l.SourceData); err != nil {
			return nil, fmt.Errorf("decode source_data for %s: %w", l.Email, err)
		}
	}
	return &l, nil
}

func collectLeads(rows *sql.Rows) ([]entity.Lead, error) {
	defer rows.Close()

	out := make([]entity.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *LeadRepository) FindByEmails(ctx context.Context, emails []string) ([]entity.Lead, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE email = ANY($1::text[])`,
		pq.Array(emails),
	)
	if err != nil {
		return nil, mapError("find by emails", err)
	}
	return collectLeads(rows)
}

func (r *LeadRepository) Get(ctx context.Context, email string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE email = $1`, email)
	l, err := scanLead(row)
	if err != nil {
		return nil, mapError("get lead", err)
	}
	return l, nil
}

type upsertRow struct {
	Email         string            `json:"email"`
	DisplayName   string            `json:"display_name"`
	SourceData    map[string]string `json:"source_data"`
	SourceColumns []string          `json:"source_columns"`
}

// Existing rows only gain the campaign label and a fresh last_updated;
// display name, source data and date_added stay as first recorded.
const upsertQuery = `
	INSERT INTO leads (` + leadColumns + `)
	SELECT x.email,
	       COALESCE(x.display_name, ''),
	       CASE WHEN $2::text = '' THEN '{}'::text[] ELSE ARRAY[$2::text] END,
	       COALESCE(x.source_data, '{}'::jsonb),
	       ARRAY(SELECT jsonb_array_elements_text(COALESCE(x.source_columns, '[]'::jsonb))),
	       NOW(), NOW()
	FROM jsonb_to_recordset($1::jsonb)
	     AS x(email text, display_name text, source_data jsonb, source_columns jsonb)
	ON CONFLICT (email) DO UPDATE SET
		campaigns = CASE
			WHEN $2::text = '' OR $2::text = ANY(leads.campaigns) THEN leads.campaigns
			ELSE array_append(leads.campaigns, $2::text)
		END,
		last_updated = NOW()
	RETURNING (xmax = 0) AS inserted
`

func (r *LeadRepository) UpsertLeads(ctx context.Context, leads []entity.Lead, campaign string) (entity.UpsertResult, error) {
	var res entity.UpsertResult

	batch := dedupeByEmail(leads)
	if len(batch) == 0 {
		return res, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, mapError("begin upsert", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(batch); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(batch) {
			end = len(batch)
		}

		payload, err := json.Marshal(batch[start:end])
		if err != nil {
			return entity.UpsertResult{}, fmt.Errorf("encode upsert batch: %w", err)
		}

		rows, err := tx.QueryContext(ctx, upsertQuery, string(payload), campaign)
		if err != nil {
			return entity.UpsertResult{}, mapError("upsert leads", err)
		}
		for rows.Next() {
			var inserted bool
			if err := rows.Scan(&inserted); err != nil {
				rows.Close()
				return entity.UpsertResult{}, mapError("upsert leads", err)
			}
			if inserted {
				res.Inserted++
			} else {
				res.Updated++
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return entity.UpsertResult{}, mapError("upsert leads", err)
		}
		rows.Close()
	}

	if err := tx.Commit(); err != nil {
		return entity.UpsertResult{}, mapError("commit upsert", err)
	}
	return res, nil
}

// dedupeByEmail keeps the first occurrence of each email. Postgres rejects
// an upsert that touches the same row twice in one statement.
func dedupeByEmail(leads []entity.Lead) []upsertRow {
	out := make([]upsertRow, 0, len(leads))
	seen := make(map[string]bool, len(leads))
	for _, l := range leads {
		if l.Email == "" || seen[l.Email] {
			continue
		}
		seen[l.Email] = true

		source := l.SourceData
		if source == nil {
			source = map[string]string{}
		}
		columns := l.SourceColumns
		if columns == nil {
			columns = []string{}
		}
		out = append(out, upsertRow{
			Email:         l.Email,
			DisplayName:   l.DisplayName,
			SourceData:    source,
			SourceColumns: columns,
		})
	}
	return out
}

func (r *LeadRepository) AddCampaign(ctx context.Context, emails []string, campaign string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE leads
		SET campaigns = array_append(campaigns, $1::text),
		    last_updated = NOW()
		WHERE email = ANY($2::text[])
		  AND NOT ($1::text = ANY(campaigns))
	`, campaign, pq.Array(emails))
	if err != nil {
		return 0, mapError("add campaign", err)
	}
	return res.RowsAffected()
}

func (r *LeadRepository) UpdateNotes(ctx context.Context, email, notes string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE leads
		SET source_data = COALESCE(source_data, '{}'::jsonb) || jsonb_build_object('`+entity.NotesField+`', $2::text),
		    last_updated = NOW()
		WHERE email = $1
	`, email, notes)
	if err != nil {
		return mapError("update notes", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError("update notes", err)
	}
	if n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) Search(ctx context.Context, f entity.SearchFilters) (*entity.SearchResult, error) {
	q := buildSearchQuery(f)

	var total int64
	if err := r.DB.QueryRowContext(ctx, q.countSQL(), q.args...).Scan(&total); err != nil {
		return nil, mapError("count search", err)
	}

	rows, err := r.DB.QueryContext(ctx, q.selectSQL(), q.pageArgs()...)
	if err != nil {
		return nil, mapError("search leads", err)
	}
	leads, err := collectLeads(rows)
	if err != nil {
		return nil, mapError("search leads", err)
	}

	res := &entity.SearchResult{Leads: leads, Total: total, CurrentPage: 1}
	if q.paged {
		res.CurrentPage = q.page
		res.Pages = int((total + int64(q.pageSize) - 1) / int64(q.pageSize))
	} else if total > 0 {
		res.Pages = 1
	}
	return res, nil
}

func (r *LeadRepository) ListAll(ctx context.Context) ([]entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY date_added DESC, email ASC`)
	if err != nil {
		return nil, mapError("list leads", err)
	}
	return collectLeads(rows)
}

func (r *LeadRepository) Campaigns(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT c
		FROM leads, unnest(campaigns) AS c
		ORDER BY c
	`)
	if err != nil {
		return nil, mapError("list campaigns", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, mapError("list campaigns", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *LeadRepository) Stats(ctx context.Context, weekStart, monthStart time.Time) (*entity.Stats, error) {
	var s entity.Stats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE date_added >= $1),
			COUNT(*) FILTER (WHERE date_added >= $2),
			(SELECT COUNT(DISTINCT c) FROM leads, unnest(campaigns) AS c)
		FROM leads
	`, weekStart, monthStart).Scan(&s.TotalLeads, &s.LeadsThisWeek, &s.LeadsThisMonth, &s.TotalCampaigns)
	if err != nil {
		return nil, mapError("stats", err)
	}
	return &s, nil
}

func (r *LeadRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
		return 0, mapError("count leads", err)
	}
	return n, nil
}

// EstimateCount reads planner statistics and falls back to an exact count
// when the table has never been analyzed.
func (r *LeadRepository) EstimateCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT reltuples::bigint FROM pg_class WHERE oid = 'leads'::regclass`,
	).Scan(&n)
	if err != nil {
		return 0, mapError("estimate count", err)
	}
	if n < 0 {
		return r.Count(ctx)
	}
	return n, nil
}

func (r *LeadRepository) Delete(ctx context.Context, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE email = ANY($1::text[])`, pq.Array(emails))
	if err != nil {
		return 0, mapError("delete leads", err)
	}
	return res.RowsAffected()
}

func (r *LeadRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads`)
	if err != nil {
		return 0, mapError("delete all leads", err)
	}
	return res.RowsAffected()
}

type searchQuery struct {
	where    []string
	args     []any
	paged    bool
	page     int
	pageSize int
}

func buildSearchQuery(f entity.SearchFilters) *searchQuery {
	q := &searchQuery{}
	arg := func(v any) string {
		q.args = append(q.args, v)
		return fmt.Sprintf("$%d", len(q.args))
	}

	if f.Query != "" {
		q.where = append(q.where, `email ILIKE `+arg("%"+escapeLike(f.Query)+"%")+` ESCAPE '\'`)
	}
	if len(f.Campaigns) > 0 {
		q.where = append(q.where, `campaigns && `+arg(pq.Array(f.Campaigns))+`::text[]`)
	}
	if len(f.ExcludeCampaigns) > 0 {
		q.where = append(q.where, `NOT (campaigns && `+arg(pq.Array(f.ExcludeCampaigns))+`::text[])`)
	}
	if f.StartDate != nil {
		q.where = append(q.where, `date_added >= `+arg(*f.StartDate))
	}
	if f.EndDate != nil {
		q.where = append(q.where, `date_added <= `+arg(*f.EndDate))
	}

	if !f.All && f.PageSize > 0 {
		q.paged = true
		q.pageSize = f.PageSize
		q.page = f.Page
		if q.page < 1 {
			q.page = 1
		}
	}
	return q
}

func (q *searchQuery) whereSQL() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

func (q *searchQuery) countSQL() string {
	return `SELECT COUNT(*) FROM leads` + q.whereSQL()
}

func (q *searchQuery) selectSQL() string {
	stmt := `SELECT ` + leadColumns + ` FROM leads` + q.whereSQL() + ` ORDER BY date_added DESC, email ASC`
	if q.paged {
		n := len(q.args)
		stmt += fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	}
	return stmt
}

func (q *searchQuery) pageArgs() []any {
	if !q.paged {
		return q.args
	}
	args := append([]any(nil), q.args...)
	return append(args, q.pageSize, (q.page-1)*q.pageSize)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
