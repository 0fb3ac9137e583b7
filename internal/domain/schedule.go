package domain

import "time"

// Weekdays 合法的 days_of_week 取值（小写英文全称）
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// MedicationSchedule 用药计划
type MedicationSchedule struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	MedicationID   string    `json:"medication_id"`
	MedicationName string    `json:"medication_name"`
	ScheduledTime  string    `json:"scheduled_time"` // "HH:MM"
	DaysOfWeek     []string  `json:"days_of_week"`
	Dosage         string    `json:"dosage"`
	Notes          *string   `json:"notes,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// OnDay 是否在指定星期执行（day 为小写英文全称）
func (s *MedicationSchedule) OnDay(day string) bool {
	for _, d := range s.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}
