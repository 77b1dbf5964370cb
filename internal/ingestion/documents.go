package ingestion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/hiretree/internal/schemas"
	"github.com/jonathan/hiretree/internal/types"
)

// ErrUnsupportedDocument is returned for uploads that are neither PDF nor DOCX.
var ErrUnsupportedDocument = errors.New("only PDF and DOCX files are supported")

// ErrNoParser means no document parser is configured.
var ErrNoParser = errors.New("no document parser configured")

// DocumentParser turns an uploaded resume into a skill profile.
type DocumentParser interface {
	ParseDocument(ctx context.Context, filename string, content []byte) (types.ParsedProfile, error)
}

var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ValidateDocumentName checks the extension of an uploaded file.
func ValidateDocumentName(filename string) error {
	if _, ok := documentTypes[strings.ToLower(filepath.Ext(filename))]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedDocument, filename)
	}
	return nil
}

// Fingerprint identifies a document by content so re-uploads hit the cache.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// NoDocumentParser always fails with ErrNoParser.
type NoDocumentParser struct{}

// ParseDocument implements DocumentParser.
func (NoDocumentParser) ParseDocument(context.Context, string, []byte) (types.ParsedProfile, error) {
	return types.ParsedProfile{}, ErrNoParser
}

// HTTPDocumentParser delegates to an external parsing service. The service
// receives the file as multipart field "file" and answers with a profile
// document that must satisfy the profile schema.
type HTTPDocumentParser struct {
	URL    string
	Client *http.Client
}

// NewHTTPDocumentParser returns a parser for the service at url.
func NewHTTPDocumentParser(url string, timeout time.Duration) *HTTPDocumentParser {
	return &HTTPDocumentParser{URL: url, Client: &http.Client{Timeout: timeout}}
}

// ParseDocument implements DocumentParser.
func (p *HTTPDocumentParser) ParseDocument(ctx context.Context, filename string, content []byte) (types.ParsedProfile, error) {
	if err := ValidateDocumentName(filename); err != nil {
		return types.ParsedProfile{}, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return types.ParsedProfile{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return types.ParsedProfile{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return types.ParsedProfile{}, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, &body)
	if err != nil {
		return types.ParsedProfile{}, fmt.Errorf("failed to create parser request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return types.ParsedProfile{}, fmt.Errorf("document parser request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.ParsedProfile{}, fmt.Errorf("failed to read parser response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.ParsedProfile{}, fmt.Errorf("document parser returned status %d", resp.StatusCode)
	}
	return decodeProfile(raw)
}

// decodeProfile validates a parser answer against the profile schema before
// decoding it.
func decodeProfile(raw []byte) (types.ParsedProfile, error) {
	if err := schemas.ValidateProfile(raw); err != nil {
		return types.ParsedProfile{}, fmt.Errorf("document parser returned an invalid profile: %w", err)
	}

	var parsed types.ParsedProfile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return types.ParsedProfile{}, fmt.Errorf("failed to decode parser response: %w", err)
	}
	return parsed, nil
}
