package model

import "gorm.io/gorm"

// Setting is a single key/value pair of user configuration, such as the
// body weight and sex the BAC estimator needs.
type Setting struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex"`
	Value string
}

const (
	SettingUserWeight = "userWeight"
	SettingUserGender = "userGender"
)
