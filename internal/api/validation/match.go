// Package validation holds the custom validator rules shared by intake
// handlers. Schedule validation happens here, at the boundary, so the
// scoring core never sees an overnight or malformed interval.
package validation

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"ngandee-matcher/internal/similarity"
)

// ValidateTimeOfDay checks the "15:04" wall-clock format
func ValidateTimeOfDay(fl validator.FieldLevel) bool {
	_, err := similarity.ParseMinutes(fl.Field().String())
	return err == nil
}

// ValidateWorkDate checks the "2006-01-02" calendar date format
func ValidateWorkDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// RegisterMatchValidators registers all matching-related custom validators
func RegisterMatchValidators(v *validator.Validate) {
	v.RegisterValidation("time_of_day", ValidateTimeOfDay)
	v.RegisterValidation("work_date", ValidateWorkDate)
}

// ValidateSchedule rejects intervals where the end does not come strictly
// after the start. Shifts crossing midnight are an explicit unsupported
// case, not a silently mis-scored one.
func ValidateSchedule(startTime, endTime string) error {
	start, err := similarity.ParseMinutes(startTime)
	if err != nil {
		return fmt.Errorf("invalid start_time: %w", err)
	}
	end, err := similarity.ParseMinutes(endTime)
	if err != nil {
		return fmt.Errorf("invalid end_time: %w", err)
	}
	if end <= start {
		return fmt.Errorf("end_time %s must be after start_time %s on the same day; overnight shifts are not supported", endTime, startTime)
	}
	return nil
}
