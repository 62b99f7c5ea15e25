package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pq.Error{Code: "23505", Constraint: "uq_users_email"}, ErrDuplicate},
		{"foreign key violation", &pq.Error{Code: "23503", Constraint: "job_listings_organization_id_fkey"}, ErrReferenceNotFound},
		{"check violation", &pq.Error{Code: "23514"}, ErrConstraint},
		{"wrapped unique violation", fmt.Errorf("exec: %w", &pq.Error{Code: "23505"}), ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err, "failed to insert")
			if !errors.Is(got, tt.want) {
				t.Errorf("translateError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslateError_PassesThroughOtherErrors(t *testing.T) {
	cause := errors.New("connection refused")
	got := translateError(cause, "failed to insert")
	if !errors.Is(got, cause) {
		t.Errorf("cause lost: %v", got)
	}
	if errors.Is(got, ErrDuplicate) {
		t.Error("plain errors must not be reported as duplicates")
	}
	if translateError(nil, "x") != nil {
		t.Error("nil must stay nil")
	}
}

func TestLimitOrDefault(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, defaultPageSize},
		{-1, defaultPageSize},
		{10, 10},
		{maxPageSize + 1, maxPageSize},
	}
	for _, tt := range tests {
		if got := limitOrDefault(tt.in); got != tt.want {
			t.Errorf("limitOrDefault(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// 各Postgresリポジトリがインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = NewPostgresUserRepo(nil)
	var _ OrganizationRepository = NewPostgresOrganizationRepo(nil)
	var _ JobListingRepository = NewPostgresJobListingRepo(nil)
	var _ ApplicationRepository = NewPostgresApplicationRepo(nil)
	var _ NotificationSettingsRepository = NewPostgresNotificationSettingsRepo(nil)
	var _ ResumeRepository = NewPostgresResumeRepo(nil)
	var _ OrganizationUserSettingsRepository = NewPostgresOrganizationUserSettingsRepo(nil)
	var _ TxRunner = NewPostgresTxRunner(nil)
}
