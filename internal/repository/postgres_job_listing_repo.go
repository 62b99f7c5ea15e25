package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/jobboard/internal/model"
)

const jobListingColumns = `id, organization_id, title, description, wage, wage_interval,
	state_abbreviation, city, is_featured, location_requirement, experience_level,
	status, type, posted_at, created_at, updated_at`

// PostgresJobListingRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresJobListingRepo struct {
	db DBTX
}

// NewPostgresJobListingRepo はPostgresJobListingRepoを生成する。
func NewPostgresJobListingRepo(db DBTX) *PostgresJobListingRepo {
	return &PostgresJobListingRepo{db: db}
}

func scanJobListing(row rowScanner) (*model.JobListing, error) {
	j := &model.JobListing{}
	var wageInterval sql.NullString
	err := row.Scan(&j.ID, &j.OrganizationID, &j.Title, &j.Description, &j.Wage, &wageInterval,
		&j.StateAbbreviation, &j.City, &j.IsFeatured, &j.LocationRequirement, &j.ExperienceLevel,
		&j.Status, &j.Type, &j.PostedAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if wageInterval.Valid {
		wi := model.WageInterval(wageInterval.String)
		j.WageInterval = &wi
	}
	return j, nil
}

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
func (r *PostgresJobListingRepo) FindByID(ctx context.Context, id string) (*model.JobListing, error) {
	j, err := scanJobListing(r.db.QueryRowContext(ctx,
		`SELECT `+jobListingColumns+` FROM job_listings WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job listing: %w", err)
	}
	return j, nil
}

// List は条件に一致する求人を注目求人・掲載日時の新しい順に返す。
func (r *PostgresJobListingRepo) List(ctx context.Context, filter JobListingFilter) ([]*model.JobListing, error) {
	var (
		conds []string
		args  []any
	)
	if filter.OrganizationID != "" {
		args = append(args, filter.OrganizationID)
		conds = append(conds, fmt.Sprintf("organization_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + jobListingColumns + ` FROM job_listings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, limitOrDefault(filter.Page.Limit), max(filter.Page.Offset, 0))
	query += fmt.Sprintf(` ORDER BY is_featured DESC, posted_at DESC NULLS LAST, created_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list job listings: %w", err)
	}
	defer rows.Close()

	var listings []*model.JobListing
	for rows.Next() {
		j, err := scanJobListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job listing: %w", err)
		}
		listings = append(listings, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job listings: %w", err)
	}
	return listings, nil
}

// Create は求人を作成する。
func (r *PostgresJobListingRepo) Create(ctx context.Context, j *model.JobListing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO job_listings (`+jobListingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		j.ID, j.OrganizationID, j.Title, j.Description, j.Wage, j.WageInterval,
		j.StateAbbreviation, j.City, j.IsFeatured, j.LocationRequirement, j.ExperienceLevel,
		j.Status, j.Type, j.PostedAt, j.CreatedAt, j.UpdatedAt,
	)
	return translateError(err, "failed to insert job listing")
}

// Update は求人を更新する。organization_idは更新しない。
func (r *PostgresJobListingRepo) Update(ctx context.Context, j *model.JobListing) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE job_listings SET title = $2, description = $3, wage = $4, wage_interval = $5,
		        state_abbreviation = $6, city = $7, is_featured = $8, location_requirement = $9,
		        experience_level = $10, status = $11, type = $12, posted_at = $13, updated_at = $14
		 WHERE id = $1`,
		j.ID, j.Title, j.Description, j.Wage, j.WageInterval,
		j.StateAbbreviation, j.City, j.IsFeatured, j.LocationRequirement,
		j.ExperienceLevel, j.Status, j.Type, j.PostedAt, j.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "failed to update job listing")
	}
	ok, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("job listing not found: %s", j.ID)
	}
	return nil
}

// DeleteByID は求人を削除する。応募はCASCADE削除される。
func (r *PostgresJobListingRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM job_listings WHERE id = $1`, id)
	if err != nil {
		return false, translateError(err, "failed to delete job listing")
	}
	return rowsAffected(res)
}

var _ JobListingRepository = (*PostgresJobListingRepo)(nil)
