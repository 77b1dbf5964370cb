package ingestion

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiretree/internal/schemas"
)

func TestValidateDocumentName(t *testing.T) {
	for _, name := range []string{"cv.pdf", "CV.PDF", "resume.docx", "my.resume.Docx"} {
		assert.NoError(t, ValidateDocumentName(name), name)
	}
	for _, name := range []string{"cv.doc", "cv.txt", "cv", "pdf", ""} {
		assert.ErrorIs(t, ValidateDocumentName(name), ErrUnsupportedDocument, name)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("resume v1"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]byte("resume v1")))
	assert.NotEqual(t, a, Fingerprint([]byte("resume v2")))
}

func TestNoDocumentParser(t *testing.T) {
	_, err := NoDocumentParser{}.ParseDocument(context.Background(), "cv.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrNoParser)
}

func TestHTTPDocumentParser_Success(t *testing.T) {
	var gotName string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		gotName = header.Filename
		gotBody, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"skills":[{"name":"Go","years":6,"recency":"current","ai_confidence":5}],
			"years_experience":9,"current_role":"Staff Engineer","summary":"Distributed systems"}`))
	}))
	defer server.Close()

	p := NewHTTPDocumentParser(server.URL, 5*time.Second)
	parsed, err := p.ParseDocument(context.Background(), "/tmp/uploads/cv.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)

	assert.Equal(t, "cv.pdf", gotName)
	assert.Equal(t, []byte("%PDF-1.7"), gotBody)
	require.Len(t, parsed.Skills, 1)
	assert.Equal(t, "Go", parsed.Skills[0].Name)
	assert.Equal(t, 5, parsed.Skills[0].AIConfidence)
	assert.Equal(t, 9, parsed.YearsExperience)
	assert.Equal(t, "Staff Engineer", parsed.CurrentRole)
}

func TestHTTPDocumentParser_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusBadGateway, `{}`, "status 502"},
		{"schema violation", http.StatusOK, `{"skills":[{"name":"Go","ai_confidence":11}]}`, "invalid profile"},
		{"not json", http.StatusOK, `<html>`, "invalid profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewHTTPDocumentParser(server.URL, time.Second).ParseDocument(context.Background(), "cv.docx", []byte("PK"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPDocumentParser_SchemaErrorIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"summary":"no skills"}`))
	}))
	defer server.Close()

	_, err := NewHTTPDocumentParser(server.URL, time.Second).ParseDocument(context.Background(), "cv.pdf", nil)
	var verr *schemas.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestHTTPDocumentParser_RejectsBadExtension(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer server.Close()

	_, err := NewHTTPDocumentParser(server.URL, time.Second).ParseDocument(context.Background(), "cv.txt", nil)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
	assert.False(t, called)
}
