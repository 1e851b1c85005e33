package ocr

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"medvault-backend/internal/llm"
	"medvault-backend/internal/llm/mock"
	"medvault-backend/internal/shared/cache"
	"medvault-backend/internal/shared/storage/object/local"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n fake chest x-ray pixels")

type fixture struct {
	svc    *Service
	client *mock.MockClient
	store  *local.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mock.NewMockClient(ctrl)
	store := local.New(t.TempDir())
	return fixture{
		svc: &Service{
			Store:      store,
			LLM:        client,
			Model:      "vision-model",
			Cache:      cache.NewMemory(),
			PDFEnabled: true,
		},
		client: client,
		store:  store,
	}
}

func (f fixture) save(t *testing.T, name string, data []byte) string {
	t.Helper()
	key, _, _, err := f.store.Save(context.Background(), "user-1", name, bytes.NewReader(data))
	require.NoError(t, err)
	return key
}

func TestExtractUnsupportedMimeSkipsWork(t *testing.T) {
	f := newFixture(t)
	f.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)

	assert.Nil(t, f.svc.Extract(context.Background(), "does/not/exist", "application/msword"))
	assert.Nil(t, f.svc.Extract(context.Background(), "does/not/exist", "image/tiff"))
}

func TestExtractPlainTextIsLocal(t *testing.T) {
	f := newFixture(t)
	f.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)
	key := f.save(t, "glucose.txt", []byte("Fasting glucose 98 mg/dL\n"))

	got := f.svc.Extract(context.Background(), key, "text/plain; charset=utf-8")
	require.NotNil(t, got)
	assert.Equal(t, "Fasting glucose 98 mg/dL", *got)
}

func TestExtractImageUsesVisionModel(t *testing.T) {
	f := newFixture(t)
	key := f.save(t, "xray.png", pngBytes)

	f.client.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req llm.Request) (llm.Response, error) {
		assert.Equal(t, "ocr", req.Operation)
		assert.Equal(t, "vision-model", req.Model)
		require.Len(t, req.Messages, 1)
		parts := req.Messages[0].Parts
		require.Len(t, parts, 2)
		assert.Contains(t, parts[0].Text, "Extract all text content")
		assert.Equal(t, "image/png", parts[1].MimeType)
		assert.Equal(t, pngBytes, parts[1].Data)
		return llm.Response{Text: "  Chest X-ray, PA view. No acute findings.  "}, nil
	}).Times(1)

	got := f.svc.Extract(context.Background(), key, "image/png")
	require.NotNil(t, got)
	assert.Equal(t, "Chest X-ray, PA view. No acute findings.", *got)

	// Same bytes again: served from cache.
	again := f.svc.Extract(context.Background(), key, "image/png")
	require.NotNil(t, again)
	assert.Equal(t, *got, *again)
}

func TestExtractScannedPDFFallsBackToVision(t *testing.T) {
	f := newFixture(t)
	key := f.save(t, "scan.pdf", []byte("%PDF-1.4 scanned page without text layer"))

	f.client.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req llm.Request) (llm.Response, error) {
		assert.Equal(t, "application/pdf", req.Messages[0].Parts[1].MimeType)
		return llm.Response{Text: "Lipid panel: LDL 130 mg/dL"}, nil
	})

	got := f.svc.Extract(context.Background(), key, "application/pdf")
	require.NotNil(t, got)
	assert.Equal(t, "Lipid panel: LDL 130 mg/dL", *got)
}

func TestExtractPDFDisabled(t *testing.T) {
	f := newFixture(t)
	f.svc.PDFEnabled = false
	f.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)
	key := f.save(t, "scan.pdf", []byte("%PDF-1.4"))

	assert.Nil(t, f.svc.Extract(context.Background(), key, "application/pdf"))
}

func TestExtractReturnsNilOnFailures(t *testing.T) {
	tests := []struct {
		name string
		resp llm.Response
		err  error
	}{
		{name: "model error", err: errors.New("openai http status 500")},
		{name: "timeout", err: context.DeadlineExceeded},
		{name: "whitespace answer", resp: llm.Response{Text: " \n\t "}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			key := f.save(t, "photo.jpg", []byte("\xff\xd8\xff\xe0 jpeg "+tt.name))
			f.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(tt.resp, tt.err)

			assert.Nil(t, f.svc.Extract(context.Background(), key, "image/jpeg"))
		})
	}
}

func TestExtractMissingObject(t *testing.T) {
	f := newFixture(t)
	f.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)
	assert.Nil(t, f.svc.Extract(context.Background(), "abc/missing.png", "image/png"))
}
