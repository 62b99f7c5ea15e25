package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/jobboard/internal/model"
)

const applicationColumns = `job_listing_id, user_id, cover_letter, rating, stage, created_at, updated_at`

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db DBTX
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db DBTX) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

func scanApplication(row rowScanner) (*model.JobListingApplication, error) {
	a := &model.JobListingApplication{}
	if err := row.Scan(&a.JobListingID, &a.UserID, &a.CoverLetter, &a.Rating, &a.Stage, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// Find は複合キーで応募を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) Find(ctx context.Context, jobListingID, userID string) (*model.JobListingApplication, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM job_listing_applications
		 WHERE job_listing_id = $1 AND user_id = $2`,
		jobListingID, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return a, nil
}

// List は条件に一致する応募を新しい順に返す。
func (r *PostgresApplicationRepo) List(ctx context.Context, filter ApplicationFilter) ([]*model.JobListingApplication, error) {
	var (
		conds []string
		args  []any
	)
	if filter.JobListingID != "" {
		args = append(args, filter.JobListingID)
		conds = append(conds, fmt.Sprintf("job_listing_id = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}

	query := `SELECT ` + applicationColumns + ` FROM job_listing_applications`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, limitOrDefault(filter.Page.Limit), max(filter.Page.Offset, 0))
	query += fmt.Sprintf(` ORDER BY created_at DESC, job_listing_id ASC, user_id ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*model.JobListingApplication
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

// Create は応募を作成する。同じ求人への重複応募はErrDuplicateを返す。
func (r *PostgresApplicationRepo) Create(ctx context.Context, a *model.JobListingApplication) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO job_listing_applications (`+applicationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.JobListingID, a.UserID, a.CoverLetter, a.Rating, a.Stage, a.CreatedAt, a.UpdatedAt,
	)
	return translateError(err, "failed to insert application")
}

// Update は応募のカバーレター・評価・選考段階を更新する。
func (r *PostgresApplicationRepo) Update(ctx context.Context, a *model.JobListingApplication) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE job_listing_applications SET cover_letter = $3, rating = $4, stage = $5, updated_at = $6
		 WHERE job_listing_id = $1 AND user_id = $2`,
		a.JobListingID, a.UserID, a.CoverLetter, a.Rating, a.Stage, a.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "failed to update application")
	}
	ok, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("application not found: %s/%s", a.JobListingID, a.UserID)
	}
	return nil
}

// Delete は応募を削除し、削除できたかを返す。
func (r *PostgresApplicationRepo) Delete(ctx context.Context, jobListingID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM job_listing_applications WHERE job_listing_id = $1 AND user_id = $2`,
		jobListingID, userID,
	)
	if err != nil {
		return false, translateError(err, "failed to delete application")
	}
	return rowsAffected(res)
}

var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
