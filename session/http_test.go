package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hazyhaar/domcensus/projection"
)

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) projection.View {
	t.Helper()
	var v projection.View
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v (%s)", err, rec.Body.String())
	}
	return v
}

func TestHTTP_PageEmpty(t *testing.T) {
	p, _ := newPanel(t, Config{})
	rec := do(t, p.Handler(), http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, projection.EmptyMessage) {
		t.Fatal("empty page must show the empty message")
	}
	if strings.Count(body, "disabled") != 2 {
		t.Fatalf("copy and export must be disabled:\n%s", body)
	}
	if strings.Contains(body, `id="countsTable"`) {
		t.Fatal("empty page must not render the table")
	}
}

func TestHTTP_SelectSortAndPage(t *testing.T) {
	p, _ := newPanel(t, Config{})
	h := p.Handler()

	rec := do(t, h, http.MethodPost, "/select", "application/json", `{"selector":" #main "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("select: %d %s", rec.Code, rec.Body.String())
	}
	if v := decodeView(t, rec); v.Title != "div#main" || v.Total != 5 {
		t.Fatalf("select view: %+v", v)
	}

	rec = do(t, h, http.MethodPost, "/sort/visible", "", "")
	v := decodeView(t, rec)
	if v.Sort.Column != projection.ColumnVisible || v.Headers[2].Indicator != "descending" {
		t.Fatalf("sort view: %+v", v.Sort)
	}

	rec = do(t, h, http.MethodGet, "/", "", "")
	body := rec.Body.String()
	if !strings.Contains(body, `<th aria-sort="descending"><form method="post" action="/sort/visible">`) {
		t.Fatalf("visible header must carry the indicator:\n%s", body)
	}
	assertInOrder(t, body, "<td>DIV</td>", "<td>SPAN</td>", "<td>#text</td>", "<td>P</td>")
	if strings.Contains(body, "disabled") {
		t.Fatal("actions must be enabled with a snapshot")
	}

	rec = do(t, h, http.MethodPost, "/sort/reset", "", "")
	if v := decodeView(t, rec); v.Sort != projection.DefaultSort() {
		t.Fatalf("reset: %v", v.Sort)
	}
}

func TestHTTP_FormPostRedirects(t *testing.T) {
	p, _ := newPanel(t, Config{})
	h := p.Handler()

	form := url.Values{"selector": {"ul"}}.Encode()
	rec := do(t, h, http.MethodPost, "/select", "application/x-www-form-urlencoded", form)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("redirect: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if p.Selector() != "ul" {
		t.Fatalf("selector: %q", p.Selector())
	}

	rec = do(t, h, http.MethodPost, "/export", "application/x-www-form-urlencoded", "")
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/?msg=") || !strings.Contains(loc, "Exported") {
		t.Fatalf("export flash: %q", loc)
	}
}

func TestHTTP_Errors(t *testing.T) {
	p, _ := newPanel(t, Config{})
	h := p.Handler()

	tests := []struct {
		name, method, target, ct, body string
		want                           int
	}{
		{"bad json", http.MethodPost, "/select", "application/json", "{", http.StatusBadRequest},
		{"empty selector", http.MethodPost, "/select", "application/json", `{"selector":""}`, http.StatusBadRequest},
		{"unknown column", http.MethodPost, "/sort/size", "", "", http.StatusBadRequest},
		{"refresh empty", http.MethodPost, "/refresh", "", "", http.StatusConflict},
		{"export empty", http.MethodPost, "/export", "", "", http.StatusConflict},
		{"copy empty", http.MethodPost, "/copy", "", "", http.StatusConflict},
		{"download empty", http.MethodGet, "/export.md", "", "", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.ct, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status: got %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Fatalf("error body: %v %v", body, err)
			}
		})
	}
}

func TestHTTP_ExportMarkdownDownload(t *testing.T) {
	p, _ := newPanel(t, Config{})
	h := p.Handler()
	do(t, h, http.MethodPost, "/select", "application/json", `{"selector":"#main"}`)

	rec := do(t, h, http.MethodGet, "/export.md", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown") {
		t.Fatalf("content type: %q", rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "domcensus-div-20260301T120000000Z.md") {
		t.Fatalf("disposition: %q", cd)
	}
	want, _ := p.Artifact()
	if rec.Body.String() != want {
		t.Fatalf("body: got %q, want %q", rec.Body.String(), want)
	}
}

func TestHTTP_Copy(t *testing.T) {
	p, _ := newPanel(t, Config{Copier: &fakeCopier{method: "manual"}})
	h := p.Handler()
	do(t, h, http.MethodPost, "/select", "application/json", `{"selector":"ul"}`)

	rec := do(t, h, http.MethodPost, "/copy", "", "")
	var resp copyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Method != "manual" {
		t.Fatalf("copy: %d %+v %v", rec.Code, resp, err)
	}
}

func assertInOrder(t *testing.T, s string, parts ...string) {
	t.Helper()
	last := -1
	for _, p := range parts {
		i := strings.Index(s, p)
		if i < 0 {
			t.Fatalf("missing %q", p)
		}
		if i < last {
			t.Fatalf("%q out of order", p)
		}
		last = i
	}
}
