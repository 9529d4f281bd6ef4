package payment

import (
	"sort"
	"strings"
	"time"
)

/// Derived views: pure functions of (records, now, params). None mutate input.

const upcomingWindow = 7 * 24 * time.Hour

// UpcomingDue selects pending records due within the next 7 days that have not
// been dismissed, sorted ascending by due date. Urgency tiers are presentation
// only and never drop a record from the selection.
func UpcomingDue(records []PaymentRecord, now time.Time, dismissed map[string]bool) []Notification {
	limit := now.Add(upcomingWindow)

	selected := make([]PaymentRecord, 0, len(records))
	for _, p := range records {
		if p.Status != StatusPending || dismissed[p.ID] {
			continue
		}
		if p.DueDate.Before(now) || p.DueDate.After(limit) {
			continue
		}
		selected = append(selected, p)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].DueDate.Before(selected[j].DueDate) })

	notifs := make([]Notification, 0, len(selected))
	for _, p := range selected {
		notifs = append(notifs, Notification{Payment: p, Urgency: urgency(p.DueDate, now)})
	}
	return notifs
}

func urgency(due, now time.Time) Urgency {
	switch left := due.Sub(now); {
	case left <= 24*time.Hour:
		return UrgencyCritical
	case left <= 3*24*time.Hour:
		return UrgencyUrgent
	default:
		return UrgencyNormal
	}
}

// FilterHistory applies a conjunctive filter over {status equality,
// case-insensitive substring on concept, inclusive assigned-date range} and
// sorts the result descending by assignment date. Re-applying the same filter
// to its own output yields the same set.
func FilterHistory(records []PaymentRecord, filter HistoryFilter) []PaymentRecord {
	search := strings.ToLower(filter.Search)

	out := make([]PaymentRecord, 0, len(records))
	for _, p := range records {
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Concept), search) {
			continue
		}
		if !filter.From.IsZero() && p.AssignedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && p.AssignedAt.After(filter.To) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out
}

// AggregateMonthly groups records by (assignment year, month) and sums the
// total/paid/pending amounts per group, chronologically ascending. Every input
// record lands in exactly one group.
func AggregateMonthly(records []PaymentRecord) []MonthlyGroup {
	type key struct {
		year  int
		month time.Month
	}
	groups := make(map[key]*MonthlyGroup)
	for _, p := range records {
		k := key{p.AssignedAt.Year(), p.AssignedAt.Month()}
		g, ok := groups[k]
		if !ok {
			g = &MonthlyGroup{Year: k.year, Month: k.month}
			groups[k] = g
		}
		g.Total += p.Amount
		if p.Status == StatusPaid {
			g.Paid += p.Amount
		} else {
			g.Pending += p.Amount
		}
	}

	out := make([]MonthlyGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// ComputeStats derives the dashboard numbers from the full record list.
func ComputeStats(records []PaymentRecord, now time.Time) Stats {
	stats := Stats{DaysSinceLastPaid: -1}

	var paidTotal float64
	var lastPaid time.Time
	for _, p := range records {
		switch p.Status {
		case StatusPaid:
			stats.PaidCount++
			paidTotal += p.Amount
			if p.PaidAt.Valid {
				if p.PaidAt.Time.Year() == now.Year() && p.PaidAt.Time.Month() == now.Month() {
					stats.MonthPaidTotal += p.Amount
				}
				if p.PaidAt.Time.After(lastPaid) {
					lastPaid = p.PaidAt.Time
				}
			}
		case StatusPending:
			stats.PendingCount++
		}
	}
	if stats.PaidCount > 0 {
		stats.PaidMean = paidTotal / float64(stats.PaidCount)
	}
	if !lastPaid.IsZero() {
		stats.DaysSinceLastPaid = int(now.Sub(lastPaid).Hours() / 24)
	}
	return stats
}
