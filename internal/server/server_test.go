package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/resumeanalyzer/internal/analysis"
	"github.com/muhammadolammi/resumeanalyzer/internal/controller"
	"github.com/muhammadolammi/resumeanalyzer/internal/logging"
	"github.com/muhammadolammi/resumeanalyzer/internal/render"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const analysisMarkdown = "# Resume Analysis\n\n## Key Skills\n- **Go**\n- *Docker*"

func plainText(_ string, data []byte) (string, error) {
	return string(data), nil
}

func newTestServer(t *testing.T, client analysis.Client, opts Options) http.Handler {
	t.Helper()
	log := logging.Discard()
	ctl := controller.New(plainText, client, render.Default, nil, log, controller.Options{})
	return New(ctl, render.Default, log, opts).Router()
}

func okClient() analysis.Client {
	return analysis.ClientFunc(func(context.Context, string) (string, error) {
		return analysisMarkdown, nil
	})
}

func uploadRequest(t *testing.T, path, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("resume", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, okClient(), Options{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestIndex(t *testing.T) {
	h := newTestServer(t, okClient(), Options{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Analyze Resume", strings.TrimSpace(doc.Find("button").Text()))
	_, disabled := doc.Find("button").Attr("disabled")
	assert.False(t, disabled)
	assert.Equal(t, 0, doc.Find("#analysis").Length())
}

func TestStatus(t *testing.T) {
	h := newTestServer(t, okClient(), Options{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"busy":false}`, rec.Body.String())
}

func TestAnalyzeJSON(t *testing.T) {
	var got string
	client := analysis.ClientFunc(func(_ context.Context, text string) (string, error) {
		got = text
		return analysisMarkdown, nil
	})
	h := newTestServer(t, client, Options{})

	rec := serve(h, uploadRequest(t, "/api/analyze", "cv.pdf", "Jane Doe, Go developer"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, "Jane Doe, Go developer", got)
	assert.Equal(t, "cv.pdf", out["filename"])
	assert.Equal(t, analysisMarkdown, out["markdown"])
	assert.Equal(t, string(render.Render(analysisMarkdown)), out["html"])
	assert.NotEmpty(t, out["id"])
}

func TestAnalyzeJSONErrors(t *testing.T) {
	failing := analysis.ClientFunc(func(context.Context, string) (string, error) {
		return "", errors.New("upstream 500")
	})

	tests := []struct {
		name     string
		client   analysis.Client
		opts     Options
		filename string
		body     string
		code     int
		msg      string
	}{
		{"missing file", okClient(), Options{}, "", "", http.StatusBadRequest, "Please select a PDF file first"},
		{"not a pdf", okClient(), Options{}, "cv.docx", "x", http.StatusBadRequest, "Please select a PDF file"},
		{"too large", okClient(), Options{MaxUpload: 16}, "cv.pdf", strings.Repeat("x", 32), http.StatusRequestEntityTooLarge, "File is too large"},
		{"analysis failure", failing, Options{}, "cv.pdf", "x", http.StatusBadGateway, controller.FailureMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, tc.client, tc.opts)
			rec := serve(h, uploadRequest(t, "/api/analyze", tc.filename, tc.body))
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.msg, decode(t, rec)["error"])
		})
	}
}

func TestAnalyzePage(t *testing.T) {
	h := newTestServer(t, okClient(), Options{})

	rec := serve(h, uploadRequest(t, "/analyze", "cv.pdf", "resume"))
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	result := doc.Find("#analysis")
	require.Equal(t, 1, result.Length())
	assert.Equal(t, "Resume Analysis", result.Find("h1").Text())
	assert.Equal(t, 2, result.Find("li").Length())
	assert.Equal(t, "Go", result.Find("strong").Text())
}

func TestAnalyzePageFailure(t *testing.T) {
	failing := analysis.ClientFunc(func(context.Context, string) (string, error) {
		return "", errors.New("upstream 500")
	})
	h := newTestServer(t, failing, Options{})

	rec := serve(h, uploadRequest(t, "/analyze", "cv.pdf", "resume"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, controller.FailureMessage, strings.TrimSpace(doc.Find("[role=alert]").Text()))
	assert.Equal(t, 0, doc.Find("#analysis").Length())
}

func TestAnalyzeBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := analysis.ClientFunc(func(context.Context, string) (string, error) {
		close(started)
		<-release
		return analysisMarkdown, nil
	})
	h := newTestServer(t, client, Options{})

	first := uploadRequest(t, "/api/analyze", "cv.pdf", "first")
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- serve(h, first)
	}()
	<-started

	rec := serve(h, uploadRequest(t, "/api/analyze", "cv.pdf", "second"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	page := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, page.Body.String(), "Analyzing...")

	status := serve(h, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.JSONEq(t, `{"busy":true}`, status.Body.String())

	close(release)
	assert.Equal(t, http.StatusOK, (<-done).Code)
}

func TestRender(t *testing.T) {
	h := newTestServer(t, okClient(), Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("# Title"))
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(render.Render("# Title")), decode(t, rec)["html"])
}

func TestRenderTooLarge(t *testing.T) {
	h := newTestServer(t, okClient(), Options{MaxUpload: 4})

	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("# much too long"))
	rec := serve(h, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
