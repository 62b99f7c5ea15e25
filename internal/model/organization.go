package model

import "time"

// Organization は求人を掲載する組織を表す。
// IDはClerk上の組織IDをそのまま使用する。
type Organization struct {
	ID        string
	Name      string
	ImageURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrganizationUpdate は組織の部分更新内容を表す。
type OrganizationUpdate struct {
	Name     *string
	ImageURL *string
}

// Apply は指定されたフィールドのみを組織に反映する。
func (o *Organization) Apply(upd OrganizationUpdate) {
	if upd.Name != nil {
		o.Name = *upd.Name
	}
	applyOptional(&o.ImageURL, upd.ImageURL)
}
