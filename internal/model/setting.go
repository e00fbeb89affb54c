package model

import "time"

// Known setting keys.
const (
	SettingSchoolName   = "school_name"
	SettingReportFooter = "report_footer"
)

// SettingLimits holds the maximum value length of every key staff may set.
var SettingLimits = map[string]int{
	SettingSchoolName:   100,
	SettingReportFooter: 300,
}

// AppSetting is one stored key-value pair.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required,min=1"`
}
