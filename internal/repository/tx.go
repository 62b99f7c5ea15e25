package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner はユーザーリポジトリを1つのトランザクション内で実行する。
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(users UserRepository) error) error
}

// PostgresTxRunner は*sql.DBのトランザクションでTxRunnerを実装する。
type PostgresTxRunner struct {
	db TxBeginner
}

// NewPostgresTxRunner はPostgresTxRunnerを生成する。
func NewPostgresTxRunner(db TxBeginner) *PostgresTxRunner {
	return &PostgresTxRunner{db: db}
}

// WithinTx はfnをトランザクション内で実行する。
// fnが成功した場合はコミットし、エラーの場合はロールバックしてfnのエラーをそのまま返す。
func (r *PostgresTxRunner) WithinTx(ctx context.Context, fn func(users UserRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(NewPostgresUserRepo(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ TxRunner = (*PostgresTxRunner)(nil)
