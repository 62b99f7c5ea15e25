package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/jobboard/internal/model"
)

// PostgresOrganizationRepo はPostgreSQLを使用した組織リポジトリ。
type PostgresOrganizationRepo struct {
	db DBTX
}

// NewPostgresOrganizationRepo はPostgresOrganizationRepoを生成する。
func NewPostgresOrganizationRepo(db DBTX) *PostgresOrganizationRepo {
	return &PostgresOrganizationRepo{db: db}
}

// FindByID は指定IDの組織を取得する。見つからない場合はnilを返す。
func (r *PostgresOrganizationRepo) FindByID(ctx context.Context, id string) (*model.Organization, error) {
	o := &model.Organization{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, image_url, created_at, updated_at FROM organizations WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.ImageURL, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return o, nil
}

// List は組織一覧を名前順に返す。
func (r *PostgresOrganizationRepo) List(ctx context.Context, page Page) ([]*model.Organization, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, image_url, created_at, updated_at FROM organizations
		 ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`,
		limitOrDefault(page.Limit), max(page.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*model.Organization
	for rows.Next() {
		o := &model.Organization{}
		if err := rows.Scan(&o.ID, &o.Name, &o.ImageURL, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organizations: %w", err)
	}
	return orgs, nil
}

// Create は組織を作成する。IDはClerkの組織IDを使用する。
func (r *PostgresOrganizationRepo) Create(ctx context.Context, org *model.Organization) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		org.ID, org.Name, org.ImageURL, org.CreatedAt, org.UpdatedAt,
	)
	return translateError(err, "failed to insert organization")
}

// Update は組織情報を更新する。
func (r *PostgresOrganizationRepo) Update(ctx context.Context, org *model.Organization) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE organizations SET name = $2, image_url = $3, updated_at = $4 WHERE id = $1`,
		org.ID, org.Name, org.ImageURL, org.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "failed to update organization")
	}
	ok, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("organization not found: %s", org.ID)
	}
	return nil
}

// DeleteByID は組織を削除する。求人と組織ユーザー設定はCASCADE削除される。
func (r *PostgresOrganizationRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return false, translateError(err, "failed to delete organization")
	}
	return rowsAffected(res)
}

var _ OrganizationRepository = (*PostgresOrganizationRepo)(nil)
