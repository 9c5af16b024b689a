// Package extractor is the client of the remote extraction capability.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/port"
	"docproc/internal/remote"
	"docproc/internal/staging"
)

const sniffLen = 512

// Client implements port.LineItemExtractor over HTTP.
type Client struct {
	endpoint   string
	apiKey     string
	stagingDir string
	client     *http.Client
}

// NewClient creates an extraction client from config.
func NewClient(cfg *config.RemoteConfig) *Client {
	return &Client{
		endpoint:   cfg.URL,
		apiKey:     cfg.APIKey,
		stagingDir: cfg.StagingDir,
		client:     &http.Client{Timeout: cfg.Timeout()},
	}
}

// Extract sends the document to the extraction capability and returns its
// line items numbered in response order. The payload is staged on local disk
// for the duration of the call and removed on every exit path.
func (c *Client) Extract(ctx context.Context, input port.ExtractInput) ([]domain.LineItem, error) {
	const op = "extractor.Extract"

	if input.Body == nil {
		return nil, domain.NewError(domain.ErrInvalidInput, op, errors.New("no document provided"))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(input.Body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, domain.NewError(domain.ErrInvalidInput, op, fmt.Errorf("reading document: %w", err))
	}
	if n == 0 {
		return nil, domain.NewError(domain.ErrInvalidInput, op, errors.New("document is empty"))
	}
	contentType := http.DetectContentType(head[:n])
	if _, ok := domain.AllowedContentTypes[contentType]; !ok {
		e := domain.NewError(domain.ErrInvalidInput, op, domain.ErrUnsupportedFileType)
		e.Detail = "detected content type " + contentType + "; allowed: pdf, jpg, png"
		return nil, e
	}

	staged, err := staging.Stage(c.stagingDir, input.Filename, io.MultiReader(bytes.NewReader(head[:n]), input.Body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer staged.Release()

	log.Printf("extractor.Extract: sending %s (%s, %d bytes)", input.Filename, contentType, staged.Size)

	body, err := c.send(ctx, staged, input.Filename, contentType)
	if err != nil {
		log.Printf("extractor.Extract: %s failed: %v", input.Filename, err)
		return nil, err
	}

	items, err := decodeItems(op, body)
	if err != nil {
		return nil, err
	}

	log.Printf("extractor.Extract: %s produced %d line items", input.Filename, len(items))
	return items, nil
}

func (c *Client) send(ctx context.Context, staged *staging.File, filename, contentType string) ([]byte, error) {
	const op = "extractor.Extract"

	src, err := staged.Reader()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pw.CloseWithError(writeFilePart(mw, src, filename, contentType))
	}()
	// The writer goroutine must be finished before the staged file is released.
	defer func() {
		_ = pr.Close()
		<-done
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	remote.SetAuth(req, c.apiKey)

	return remote.Do(c.client, req, op)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, src io.Reader, filename, contentType string) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}

func decodeItems(op string, body []byte) ([]domain.LineItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, remote.MalformedError(op, errors.New("expected a JSON array of items"), body)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raws []domain.RawLineItem
	if err := dec.Decode(&raws); err != nil {
		return nil, remote.MalformedError(op, err, body)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, remote.MalformedError(op, errors.New("unexpected data after the item array"), body)
	}

	items, err := domain.NormalizeLineItems(raws)
	if err != nil {
		e := domain.NewError(domain.ErrUpstreamError, op, fmt.Errorf("normalizing items: %v", err))
		e.Detail = remote.Truncate(string(body), 500)
		return nil, e
	}
	return items, nil
}
