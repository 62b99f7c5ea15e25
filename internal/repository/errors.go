package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate は一意制約違反（SQLSTATE 23505）を表す。
	ErrDuplicate = errors.New("duplicate key")
	// ErrReferenceNotFound は外部キー制約違反（SQLSTATE 23503）を表す。
	ErrReferenceNotFound = errors.New("referenced row not found")
	// ErrConstraint はCHECK制約違反（SQLSTATE 23514）を表す。
	ErrConstraint = errors.New("check constraint violated")
)

// translateError はPostgreSQLの制約違反を番兵エラーに変換する。
// それ以外のエラーはmsgを付けてラップする。
func translateError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w (%s)", msg, ErrDuplicate, pqErr.Constraint)
		case "23503":
			return fmt.Errorf("%s: %w (%s)", msg, ErrReferenceNotFound, pqErr.Constraint)
		case "23514":
			return fmt.Errorf("%s: %w (%s)", msg, ErrConstraint, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// rowsAffected は削除・更新で対象行があったかを返す。
func rowsAffected(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// limitOrDefault はページサイズを1〜maxPageSizeの範囲に収める。
func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

const (
	defaultPageSize = 100
	maxPageSize     = 500
)
