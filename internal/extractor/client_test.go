package extractor_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/extractor"
	"docproc/internal/port"
)

func pdfContent() []byte {
	return []byte("%PDF-1.4 test content that is at least a few bytes long for detection purposes")
}

func newTestClient(t *testing.T, serverURL string) (*extractor.Client, string) {
	t.Helper()
	dir := t.TempDir()
	return extractor.NewClient(&config.RemoteConfig{
		URL:         serverURL,
		APIKey:      "test-key",
		TimeoutSecs: 5,
		StagingDir:  dir,
	}), dir
}

func assertNoStagedFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged payload copies must be released")
}

func pdfInput() port.ExtractInput {
	content := pdfContent()
	return port.ExtractInput{Filename: "invoice.pdf", Body: bytes.NewReader(content), Size: int64(len(content))}
}

func TestExtract_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, pdfContent(), data)
		assert.Equal(t, "invoice.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"description":"Widget","quantity":2,"unit_price":5}]`))
	}))
	defer server.Close()

	client, dir := newTestClient(t, server.URL)

	items, err := client.Extract(context.Background(), pdfInput())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].LineNumber)
	assert.Equal(t, "Widget", items[0].Description)
	assert.Equal(t, 10.0, items[0].TotalPrice)
	assert.Equal(t, "", items[0].MatchedProductID)
	assert.Equal(t, domain.DefaultUnitType, items[0].UnitType)
	assertNoStagedFiles(t, dir)
}

func TestExtract_NumbersLinesInResponseOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"product_code":"A","quantity":"1","unit_price":"2.5"},
			{"product_code":"B"},
			null
		]`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	items, err := client.Extract(context.Background(), pdfInput())

	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "A", items[0].ProductCode)
	assert.Equal(t, 2.5, items[0].TotalPrice)
	assert.Equal(t, 2, items[1].LineNumber)
	assert.Equal(t, 0.0, items[1].TotalPrice)
	assert.Equal(t, 3, items[2].LineNumber)
}

func TestExtract_EmptyArrayIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	items, err := client.Extract(context.Background(), pdfInput())

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExtract_UpstreamErrorPassesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model crashed"}`))
	}))
	defer server.Close()

	client, dir := newTestClient(t, server.URL)

	items, err := client.Extract(context.Background(), pdfInput())

	assert.Nil(t, items)
	assert.ErrorIs(t, err, domain.ErrUpstreamError)
	assert.Equal(t, `{"error":"model crashed"}`, domain.DetailOf(err))
	assertNoStagedFiles(t, dir)
}

func TestExtract_ServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.Extract(context.Background(), pdfInput())

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 7*time.Second, domain.RetryAfterOf(err))
}

func TestExtract_MalformedPayload(t *testing.T) {
	cases := map[string]string{
		"not json":     `<html>oops</html>`,
		"object":       `{"items":[]}`,
		"null":         `null`,
		"truncated":    `[{"description":"Widget"`,
		"scalar items": `[1, 2]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(payload))
			}))
			defer server.Close()

			client, _ := newTestClient(t, server.URL)

			_, err := client.Extract(context.Background(), pdfInput())

			assert.ErrorIs(t, err, domain.ErrUpstreamError)
			assert.NotErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestExtract_TrailingDataIsMalformed(t *testing.T) {
	cases := map[string]string{
		"html after array": `[{"description":"Widget","quantity":2,"unit_price":5}] <html>oops</html>`,
		"second array":     `[{"description":"Widget"}][{"description":"Gadget"}]`,
		"stray bracket":    `[] ]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(payload))
			}))
			defer server.Close()

			client, dir := newTestClient(t, server.URL)

			items, err := client.Extract(context.Background(), pdfInput())

			assert.Nil(t, items)
			assert.ErrorIs(t, err, domain.ErrUpstreamError)
			assert.NotErrorIs(t, err, domain.ErrInvalidInput)
			assertNoStagedFiles(t, dir)
		})
	}
}

func TestExtract_TrailingWhitespaceIsAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[{\"description\":\"Widget\"}]\n\n"))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	items, err := client.Extract(context.Background(), pdfInput())

	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestExtract_UncoercibleRecordIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"quantity":"lots"}]`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.Extract(context.Background(), pdfInput())

	assert.ErrorIs(t, err, domain.ErrUpstreamError)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "quantity")
}

func TestExtract_InvalidInputNeverCallsRemote(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client, dir := newTestClient(t, server.URL)

	cases := map[string]port.ExtractInput{
		"nil body":    {Filename: "a.pdf"},
		"empty body":  {Filename: "a.pdf", Body: bytes.NewReader(nil)},
		"unsupported": {Filename: "a.exe", Body: bytes.NewReader([]byte("MZ fake exe content"))},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := client.Extract(context.Background(), input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assertNoStagedFiles(t, dir)
}

func TestExtract_UnsupportedTypeReportsDetectedType(t *testing.T) {
	client, _ := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.Extract(context.Background(), port.ExtractInput{
		Filename: "notes.txt",
		Body:     bytes.NewReader([]byte("plain text notes")),
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.Contains(t, domain.DetailOf(err), "text/plain")
}

func TestExtract_UnreachableRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, dir := newTestClient(t, url)

	_, err := client.Extract(context.Background(), pdfInput())

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assertNoStagedFiles(t, dir)
}

func TestExtract_CanceledRequestReleasesStagedCopy(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, dir := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Extract(ctx, pdfInput())

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assertNoStagedFiles(t, dir)
}
