package domain

import "time"

// ============================================================
// Filing reminders
// ============================================================

// Frequency of a filing obligation.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyAnnual  Frequency = "annual"
)

// ReminderStatus is the derived state of an obligation on a given day.
type ReminderStatus string

const (
	StatusCompleted ReminderStatus = "completed"
	StatusUpcoming  ReminderStatus = "upcoming"
	StatusDue       ReminderStatus = "due"
	StatusOverdue   ReminderStatus = "overdue"
)

// completedWindow is how many days before a monthly due day the filing is
// assumed to be done already.
const completedWindow = 5

// Obligation describes one recurring filing.
type Obligation struct {
	ID          string     `json:"id"`
	Title       string     `json:"type"`
	Description string     `json:"description"`
	DueLabel    string     `json:"dueDate"`
	Frequency   Frequency  `json:"frequency"`
	DueDay      int        `json:"day"`
	DueMonth    time.Month `json:"dueMonth,omitempty"` // annual only
	GST         bool       `json:"gst"`
}

// Obligations is the fixed catalogue of filings tracked by the copilot.
var Obligations = []Obligation{
	{
		ID:          "gstr1",
		Title:       "GSTR-1",
		Description: "Monthly/Quarterly return for outward supplies",
		DueLabel:    "10th of every month",
		Frequency:   FrequencyMonthly,
		DueDay:      10,
		GST:         true,
	},
	{
		ID:          "gstr3b",
		Title:       "GSTR-3B",
		Description: "Monthly summary return with tax payment",
		DueLabel:    "20th of every month",
		Frequency:   FrequencyMonthly,
		DueDay:      20,
		GST:         true,
	},
	{
		ID:          "gstr9",
		Title:       "GSTR-9",
		Description: "Annual return for regular taxpayers",
		DueLabel:    "31st December",
		Frequency:   FrequencyAnnual,
		DueDay:      31,
		DueMonth:    time.December,
		GST:         true,
	},
	{
		ID:          "itr",
		Title:       "ITR",
		Description: "Income Tax Return filing",
		DueLabel:    "31st July",
		Frequency:   FrequencyAnnual,
		DueDay:      31,
		DueMonth:    time.July,
	},
}

// MonthlyStatus classifies a monthly obligation by day of month.
func MonthlyStatus(day, dueDay int) ReminderStatus {
	switch {
	case day < dueDay-completedWindow:
		return StatusCompleted
	case day < dueDay:
		return StatusUpcoming
	case day == dueDay:
		return StatusDue
	default:
		return StatusOverdue
	}
}

// AnnualStatus classifies an annual obligation: upcoming before the due
// month, due during it up to the due day, overdue afterwards.
func AnnualStatus(month time.Month, day int, dueMonth time.Month, dueDay int) ReminderStatus {
	switch {
	case month < dueMonth:
		return StatusUpcoming
	case month == dueMonth && day <= dueDay:
		return StatusDue
	default:
		return StatusOverdue
	}
}

// DaysInMonth returns the number of days in the month containing d.
func DaysInMonth(d Date) int {
	return NewDate(d.Year(), d.Month()+1, 0).Day()
}

// DaysUntilMonthly counts days to the next occurrence of dueDay. Once the
// due day has passed it wraps using the current month's length.
func DaysUntilMonthly(today Date, dueDay int) int {
	if today.Day() <= dueDay {
		return dueDay - today.Day()
	}
	return DaysInMonth(today) - today.Day() + dueDay
}

// Status derives the obligation's status on today.
func (o Obligation) Status(today Date) ReminderStatus {
	if o.Frequency == FrequencyMonthly {
		return MonthlyStatus(today.Day(), o.DueDay)
	}
	return AnnualStatus(today.Month(), today.Day(), o.DueMonth, o.DueDay)
}

// DaysLeft is only meaningful for monthly obligations; annual ones report 0.
func (o Obligation) DaysLeft(today Date) int {
	if o.Frequency == FrequencyMonthly {
		return DaysUntilMonthly(today, o.DueDay)
	}
	return 0
}

// Reminder is an obligation evaluated against a date and the ledger.
type Reminder struct {
	Obligation
	Status     ReminderStatus `json:"status"`
	DaysLeft   int            `json:"daysLeft"`
	Applicable bool           `json:"applicable"`
}

// BuildReminders evaluates every obligation. GST filings are applicable
// only when the business has crossed the registration threshold.
func BuildReminders(today Date, requiresRegistration bool) []Reminder {
	out := make([]Reminder, 0, len(Obligations))
	for _, o := range Obligations {
		out = append(out, Reminder{
			Obligation: o,
			Status:     o.Status(today),
			DaysLeft:   o.DaysLeft(today),
			Applicable: !o.GST || requiresRegistration,
		})
	}
	return out
}
