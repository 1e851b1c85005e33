package documents

import "time"

// DocumentResponse is the outward-facing representation of a document. It
// never carries the storage path.
type DocumentResponse struct {
	ID               int64      `json:"id"`
	OriginalFileName string     `json:"originalFileName"`
	MimeType         string     `json:"mimeType"`
	SizeBytes        int64      `json:"sizeBytes"`
	DocumentType     string     `json:"documentType"`
	ClinicalType     string     `json:"clinicalType"`
	Title            string     `json:"title"`
	Source           string     `json:"source"`
	DateOfService    *time.Time `json:"dateOfService"`
	ShortSummary     string     `json:"shortSummary"`
	ExtractedText    *string    `json:"extractedText"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// VisitGroupResponse is one timeline entry.
type VisitGroupResponse struct {
	DateRange string             `json:"dateRange"`
	StartDate time.Time          `json:"startDate"`
	EndDate   time.Time          `json:"endDate"`
	Label     string             `json:"label"`
	Documents []DocumentResponse `json:"documents"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:               doc.ID,
		OriginalFileName: doc.OriginalFileName,
		MimeType:         doc.MimeType,
		SizeBytes:        doc.SizeBytes,
		DocumentType:     string(doc.DocumentType),
		ClinicalType:     string(doc.ClinicalType),
		Title:            doc.Title,
		Source:           doc.Source,
		DateOfService:    doc.DateOfService,
		ShortSummary:     doc.ShortSummary,
		ExtractedText:    doc.ExtractedText,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

func toResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	return out
}

func toTimelineResponse(groups []VisitGroup) []VisitGroupResponse {
	out := make([]VisitGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, VisitGroupResponse{
			DateRange: g.DateRange,
			StartDate: g.StartDate,
			EndDate:   g.EndDate,
			Label:     g.Label,
			Documents: toResponses(g.Documents),
		})
	}
	return out
}
