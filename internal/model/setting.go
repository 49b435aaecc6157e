package model

import "time"

// Setting holds one settings group as a JSON payload.
type Setting struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Group     string    `json:"group" gorm:"column:setting_group;size:32;uniqueIndex:idx_setting_group_name"`
	Name      string    `json:"name" gorm:"size:64;uniqueIndex:idx_setting_group_name"`
	Payload   string    `json:"payload" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
