package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/jobboard/internal/model"
)

const userColumns = `id, clerk_id, email, first_name, last_name, phone_number, image_url, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db DBTX
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db DBTX) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.ClerkID, &u.Email, &u.FirstName, &u.LastName,
		&u.PhoneNumber, &u.ImageURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepo) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by %s: %w", where, err)
	}
	return u, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByClerkID はClerkのユーザーIDでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	return r.findOne(ctx, "clerk_id", clerkID)
}

// List はユーザー一覧を作成日時順に返す。
func (r *PostgresUserRepo) List(ctx context.Context, page Page) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2`,
		limitOrDefault(page.Limit), max(page.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.ClerkID, user.Email, user.FirstName, user.LastName,
		user.PhoneNumber, user.ImageURL, user.CreatedAt, user.UpdatedAt,
	)
	return translateError(err, "failed to insert user")
}

// Update はユーザー情報を更新する。clerk_idは更新しない。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $2, first_name = $3, last_name = $4,
		        phone_number = $5, image_url = $6, updated_at = $7
		 WHERE id = $1`,
		user.ID, user.Email, user.FirstName, user.LastName,
		user.PhoneNumber, user.ImageURL, user.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "failed to update user")
	}
	ok, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 応募・通知設定・履歴書・組織ユーザー設定はCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, translateError(err, "failed to delete user")
	}
	return rowsAffected(res)
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
