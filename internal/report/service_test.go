package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"medvault-backend/internal/classify"
	"medvault-backend/internal/documents"
	"medvault-backend/internal/llm"
	"medvault-backend/internal/llm/mock"
	"medvault-backend/internal/usage"
)

var fixedNow = time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *mock.MockClient, *documents.MemoryRepo) {
	t.Helper()
	client := mock.NewMockClient(gomock.NewController(t))
	docs := documents.NewMemoryRepo()
	return &Service{Documents: docs, LLM: client, Model: "gemini-2.5-flash", Now: func() time.Time { return fixedNow }}, client, docs
}

func seed(t *testing.T, docs *documents.MemoryRepo, userID string) {
	t.Helper()
	_, err := docs.ForUser(userID).Create(context.Background(), documents.Document{
		Title:        "Echocardiogram",
		DocumentType: classify.MedicalImage,
		ClinicalType: classify.Cardiology,
		ShortSummary: "Normal ejection fraction.",
	})
	require.NoError(t, err)
}

func TestGenerateWithoutDocuments(t *testing.T) {
	svc, client, _ := newService(t)
	client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)

	var buf bytes.Buffer
	err := svc.Generate(context.Background(), "alice", &buf)
	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.Zero(t, buf.Len())
}

func TestGenerateRendersModelText(t *testing.T) {
	svc, client, docs := newService(t)
	seed(t, docs, "alice")
	seed(t, docs, "bob")

	client.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req llm.Request) (llm.Response, error) {
		assert.Equal(t, "report", req.Operation)
		assert.False(t, req.JSON)
		prompt := req.Messages[0].Parts[0].Text
		assert.Contains(t, prompt, "The patient has 1 documents")
		assert.Contains(t, prompt, "Specialty: Cardiology")
		assert.Contains(t, prompt, "# CHRONOLOGICAL TIMELINE")
		assert.Contains(t, prompt, "Today's date is Mar 4, 2025")
		return llm.Response{Text: "# PATIENT SUMMARY\nHealthy heart.\n\n# RECOMMENDATIONS\n- Annual checkup"}, nil
	})

	var buf bytes.Buffer
	require.NoError(t, svc.Generate(context.Background(), "alice", &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestGenerateModelFailureWritesNothing(t *testing.T) {
	svc, client, docs := newService(t)
	seed(t, docs, "alice")

	tests := []struct {
		name string
		resp llm.Response
		err  error
	}{
		{name: "error", err: &llm.StatusError{Provider: "openai", StatusCode: 500}},
		{name: "empty", resp: llm.Response{Text: "  "}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(tt.resp, tt.err)
			var buf bytes.Buffer
			err := svc.Generate(context.Background(), "alice", &buf)
			assert.ErrorIs(t, err, ErrModelUnavailable)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestGenerateRespectsQuota(t *testing.T) {
	svc, client, docs := newService(t)
	seed(t, docs, "alice")
	quota := usage.NewService(usage.Policy{Limit: 1})
	_, _ = quota.Consume(context.Background(), "alice", 1)
	svc.Usage = quota
	client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)

	err := svc.Generate(context.Background(), "alice", &bytes.Buffer{})
	assert.True(t, errors.Is(err, usage.ErrLimitReached))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "health-summary-2025-03-04.pdf", FileName(fixedNow))
}
