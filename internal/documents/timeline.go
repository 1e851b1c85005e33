package documents

import (
	"sort"
	"time"

	"medvault-backend/internal/classify"
)

// visitWindowDays is how far, in whole days, a document may sit from a
// group's start day and still join it.
const visitWindowDays = 7

// VisitGroup is a run of documents uploaded close together.
type VisitGroup struct {
	DateRange string
	StartDate time.Time
	EndDate   time.Time
	Label     string
	Documents []Document
}

var visitLabels = map[classify.DocumentType]string{
	classify.LabReport:    "Lab work and diagnostics",
	classify.MedicalImage: "Imaging and scans",
	classify.DoctorNote:   "Medical consultation",
	classify.Prescription: "Medication management",
	classify.OtherType:    "Medical documentation",
}

// GroupTimeline sorts docs newest first and assigns each to the first group
// whose start day is within the visit window, or opens a new group.
func GroupTimeline(docs []Document) []VisitGroup {
	if len(docs) == 0 {
		return []VisitGroup{}
	}
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	groups := make([]*VisitGroup, 0)
	for _, doc := range sorted {
		day := startOfDay(doc.CreatedAt)
		var group *VisitGroup
		for _, g := range groups {
			if absDays(day, g.StartDate) <= visitWindowDays {
				group = g
				break
			}
		}
		if group == nil {
			groups = append(groups, &VisitGroup{
				DateRange: formatDateRange(day, day),
				StartDate: day,
				EndDate:   day,
				Label:     visitLabel(doc.DocumentType),
				Documents: []Document{doc},
			})
			continue
		}
		group.Documents = append(group.Documents, doc)
		if day.Before(group.StartDate) {
			group.StartDate = day
		}
		if day.After(group.EndDate) {
			group.EndDate = day
		}
		group.DateRange = formatDateRange(group.StartDate, group.EndDate)
	}

	out := make([]VisitGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out
}

func visitLabel(t classify.DocumentType) string {
	if label, ok := visitLabels[t]; ok {
		return label
	}
	return "Medical visit"
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func absDays(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}

// formatDateRange renders "Jan 2, 2006", "2-9 Jan 2006" or "Jan 2 - Feb 3, 2006".
func formatDateRange(start, end time.Time) string {
	if start.Equal(end) {
		return start.Format(classify.DisplayDate)
	}
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return start.Format("2") + "-" + end.Format("2 Jan 2006")
	}
	return start.Format("Jan 2") + " - " + end.Format(classify.DisplayDate)
}
