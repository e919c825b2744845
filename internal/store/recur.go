package store

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ScheduleEntry is one concrete calendar item after recurrence expansion.
// Recurring instances are virtual: their id identifies the occurrence, but
// deletes must target DeletableID, which is the recurrence parent's id.
type ScheduleEntry struct {
	ID                  string `json:"id"`
	DeletableID         string `json:"deletable_id"`
	Date                string `json:"date"`
	Name                string `json:"name"`
	Status              string `json:"status"`
	Type                string `json:"type,omitempty"`
	Notes               string `json:"notes,omitempty"`
	TemplateID          string `json:"template_id,omitempty"`
	IsRecurring         bool   `json:"is_recurring"`
	IsRecurringInstance bool   `json:"is_recurring_instance"`
}

// ExpandSchedule materializes the user's planned workouts over [start, end]
// inclusive. One-time entries pass through when their date falls in the
// window; recurring entries produce one instance per matching date.
func ExpandSchedule(workouts []*PlannedWorkout, start, end string) ([]ScheduleEntry, error) {
	startDay, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("parse start date %q: %w", start, err)
	}
	endDay, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("parse end date %q: %w", end, err)
	}
	if endDay.Before(startDay) {
		return nil, fmt.Errorf("end date %s before start date %s", end, start)
	}

	var entries []ScheduleEntry
	for _, pw := range workouts {
		if !pw.IsRecurring {
			if pw.Date >= start && pw.Date <= end {
				entries = append(entries, ScheduleEntry{
					ID:          pw.ID,
					DeletableID: pw.ID,
					Date:        pw.Date,
					Name:        pw.Name,
					Status:      pw.Status,
					Type:        pw.Type,
					Notes:       pw.Notes,
					TemplateID:  pw.TemplateID,
				})
			}
			continue
		}

		entries = append(entries, expandRecurring(pw, startDay, endDay)...)
	}
	return entries, nil
}

func expandRecurring(pw *PlannedWorkout, start, end time.Time) []ScheduleEntry {
	anchor, err := time.Parse(dateLayout, pw.Date)
	if err != nil {
		return nil
	}

	// The rule is active from its anchor date until its optional end date.
	if anchor.After(start) {
		start = anchor
	}
	if pw.RecurrenceEndDate != "" {
		if until, err := time.Parse(dateLayout, pw.RecurrenceEndDate); err == nil && until.Before(end) {
			end = until
		}
	}

	var entries []ScheduleEntry
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !recursOn(pw, anchor, day) {
			continue
		}
		date := day.Format(dateLayout)
		entries = append(entries, ScheduleEntry{
			ID:                  pw.ID + ":" + date,
			DeletableID:         pw.ID,
			Date:                date,
			Name:                pw.Name,
			Status:              pw.Status,
			Type:                pw.Type,
			Notes:               pw.Notes,
			TemplateID:          pw.TemplateID,
			IsRecurring:         true,
			IsRecurringInstance: true,
		})
	}
	return entries
}

func recursOn(pw *PlannedWorkout, anchor, day time.Time) bool {
	switch pw.RecurrenceType {
	case "daily":
		return true
	case "weekly":
		if len(pw.RecurrenceDays) == 0 {
			return mondayIndexed(day) == mondayIndexed(anchor)
		}
		for _, wd := range pw.RecurrenceDays {
			if mondayIndexed(day) == wd {
				return true
			}
		}
		return false
	case "monthly":
		return day.Day() == anchor.Day()
	default:
		return false
	}
}

// mondayIndexed maps a weekday to the 0=Mon..6=Sun convention used by
// recurrence_days.
func mondayIndexed(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
