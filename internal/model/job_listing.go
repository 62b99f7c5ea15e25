package model

import "time"

// JobListing は組織が掲載する求人を表す。
type JobListing struct {
	ID                  string
	OrganizationID      string
	Title               string
	Description         string // サニタイズ済みHTML
	Wage                *int
	WageInterval        *WageInterval
	StateAbbreviation   *string
	City                *string
	IsFeatured          bool
	LocationRequirement LocationRequirement
	ExperienceLevel     ExperienceLevel
	Status              JobListingStatus
	Type                JobListingType
	PostedAt            *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// JobListingUpdate は求人の部分更新内容を表す。
type JobListingUpdate struct {
	Title               *string
	Description         *string
	Wage                *int
	WageInterval        *WageInterval
	StateAbbreviation   *string
	City                *string
	IsFeatured          *bool
	LocationRequirement *LocationRequirement
	ExperienceLevel     *ExperienceLevel
	Status              *JobListingStatus
	Type                *JobListingType
	PostedAt            *time.Time
}

// Apply は指定されたフィールドのみを求人に反映する。
func (j *JobListing) Apply(upd JobListingUpdate) {
	if upd.Title != nil {
		j.Title = *upd.Title
	}
	if upd.Description != nil {
		j.Description = *upd.Description
	}
	if upd.Wage != nil {
		v := *upd.Wage
		j.Wage = &v
	}
	if upd.WageInterval != nil {
		v := *upd.WageInterval
		j.WageInterval = &v
	}
	applyOptional(&j.StateAbbreviation, upd.StateAbbreviation)
	applyOptional(&j.City, upd.City)
	if upd.IsFeatured != nil {
		j.IsFeatured = *upd.IsFeatured
	}
	if upd.LocationRequirement != nil {
		j.LocationRequirement = *upd.LocationRequirement
	}
	if upd.ExperienceLevel != nil {
		j.ExperienceLevel = *upd.ExperienceLevel
	}
	if upd.Status != nil {
		j.Status = *upd.Status
	}
	if upd.Type != nil {
		j.Type = *upd.Type
	}
	if upd.PostedAt != nil {
		v := *upd.PostedAt
		j.PostedAt = &v
	}
}

// WageInterval は給与の支払い単位を表す。
type WageInterval string

const (
	WageIntervalHourly WageInterval = "hourly"
	WageIntervalYearly WageInterval = "yearly"
)

// Valid は定義済みの値かどうかを返す。
func (w WageInterval) Valid() bool {
	return w == WageIntervalHourly || w == WageIntervalYearly
}

// LocationRequirement は勤務形態を表す。
type LocationRequirement string

const (
	LocationInOffice LocationRequirement = "in-office"
	LocationHybrid   LocationRequirement = "hybrid"
	LocationRemote   LocationRequirement = "remote"
)

// Valid は定義済みの値かどうかを返す。
func (l LocationRequirement) Valid() bool {
	switch l {
	case LocationInOffice, LocationHybrid, LocationRemote:
		return true
	}
	return false
}

// ExperienceLevel は求める経験レベルを表す。
type ExperienceLevel string

const (
	ExperienceJunior   ExperienceLevel = "junior"
	ExperienceMidLevel ExperienceLevel = "mid-level"
	ExperienceSenior   ExperienceLevel = "senior"
)

// Valid は定義済みの値かどうかを返す。
func (e ExperienceLevel) Valid() bool {
	switch e {
	case ExperienceJunior, ExperienceMidLevel, ExperienceSenior:
		return true
	}
	return false
}

// JobListingStatus は求人の公開状態を表す。
type JobListingStatus string

const (
	// JobListingStatusDraft は下書き状態。作成時のデフォルト。
	JobListingStatusDraft JobListingStatus = "draft"
	// JobListingStatusPublished は公開中の状態。
	JobListingStatusPublished JobListingStatus = "published"
	// JobListingStatusDelisted は掲載終了の状態。
	JobListingStatusDelisted JobListingStatus = "delisted"
)

// Valid は定義済みの値かどうかを返す。
func (s JobListingStatus) Valid() bool {
	switch s {
	case JobListingStatusDraft, JobListingStatusPublished, JobListingStatusDelisted:
		return true
	}
	return false
}

// JobListingType は雇用形態を表す。
type JobListingType string

const (
	JobListingTypeInternship JobListingType = "internship"
	JobListingTypePartTime   JobListingType = "part-time"
	JobListingTypeFullTime   JobListingType = "full-time"
)

// Valid は定義済みの値かどうかを返す。
func (t JobListingType) Valid() bool {
	switch t {
	case JobListingTypeInternship, JobListingTypePartTime, JobListingTypeFullTime:
		return true
	}
	return false
}
