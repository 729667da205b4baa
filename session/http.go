package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/domcensus/internal/kit"
	"github.com/hazyhaar/domcensus/projection"
)

// Handler serves the panel over HTTP. Mount it at the root of a server.
//
//	GET  /            HTML panel
//	GET  /view        current view as JSON
//	POST /select      {"selector": "..."} or form field selector
//	POST /refresh     recalculate
//	POST /sort/{col}  click a header (name, count, visible)
//	POST /sort/reset  default order
//	GET  /export.md   markdown download of the current table
//	POST /export      deliver a report to the sinks
//	POST /copy        copy the table through the clipboard chain
//
// POSTs sent as HTML forms redirect back to the panel; others answer JSON.
func (p *Panel) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := kit.WithTransport(r.Context(), "http")
			ctx = kit.WithRequestID(ctx, middleware.GetReqID(r.Context()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	r.Get("/", p.handlePage)
	r.Get("/view", p.handle(p.viewEndpoint(), nil))
	r.Post("/select", p.handle(p.selectEndpoint(), func(r *http.Request) (any, error) {
		var req selectRequest
		if isForm(r) {
			req.Selector = r.FormValue("selector")
			return &req, nil
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return &req, nil
	}))
	r.Post("/refresh", p.handle(p.refreshEndpoint(), nil))
	r.Post("/sort/reset", p.handle(p.resetSortEndpoint(), nil))
	r.Post("/sort/{column}", p.handle(p.sortEndpoint(), func(r *http.Request) (any, error) {
		return &sortRequest{Column: chi.URLParam(r, "column")}, nil
	}))
	r.Get("/export.md", p.handleExportMarkdown)
	r.Post("/export", p.handle(p.exportEndpoint(), nil))
	r.Post("/copy", p.handle(p.copyEndpoint(), nil))
	return r
}

// handle adapts an endpoint to HTTP. decode may be nil for endpoints
// without arguments.
func (p *Panel) handle(ep kit.Endpoint, decode func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req any = &emptyRequest{}
		if decode != nil {
			var err error
			if req, err = decode(r); err != nil {
				p.respond(w, r, nil, err)
				return
			}
		}
		resp, err := ep(r.Context(), req)
		p.respond(w, r, resp, err)
	}
}

func (p *Panel) respond(w http.ResponseWriter, r *http.Request, resp any, err error) {
	if isForm(r) {
		target := "/"
		if msg := flash(resp, err); msg != "" {
			target += "?msg=" + url.QueryEscape(msg)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	if err != nil {
		jsonErr(w, err.Error(), statusOf(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func flash(resp any, err error) string {
	if err != nil {
		return err.Error()
	}
	switch v := resp.(type) {
	case exportResponse:
		return "Exported " + v.FileName
	case copyResponse:
		return "Copied via " + v.Method
	}
	return ""
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

func (p *Panel) handleExportMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, err := p.Report()
	if err != nil {
		jsonErr(w, err.Error(), statusOf(err))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rep.FileName()}))
	w.Write([]byte(rep.Markdown))
}

var panelTmpl = template.Must(template.New("panel").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>DOM census: {{.View.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;max-width:760px;margin:2rem auto;padding:0 1rem;color:#222;background:#fafafa}
h1{font-size:1.3rem;border-bottom:2px solid #e0e0e0;padding-bottom:.5rem;font-family:ui-monospace,monospace}
table{border-collapse:collapse;width:100%;background:#fff}
th,td{border:1px solid #e0e0e0;padding:.3rem .6rem;text-align:left}
td.num{text-align:right;font-variant-numeric:tabular-nums}
th button{all:unset;cursor:pointer;font-weight:600}
th[aria-sort=ascending] button::after{content:" \25B2"}
th[aria-sort=descending] button::after{content:" \25BC"}
.empty{color:#999;font-style:italic}
.msg{background:#fff8e1;border:1px solid #ffe082;padding:.5rem;border-radius:4px}
.bar{display:flex;gap:.5rem;margin:1rem 0}
.bar form{display:inline}
footer{font-size:.8rem;color:#666;margin-top:1.5rem}
</style></head><body>
<h1>{{.View.Title}}</h1>
{{- if .Msg}}
<p class="msg" role="status">{{.Msg}}</p>
{{- end}}
<form method="post" action="/select" class="bar">
<input name="selector" value="{{.Selector}}" placeholder="CSS selector" aria-label="selector">
<button type="submit">Select</button>
</form>
<div class="bar">
<form method="post" action="/refresh"><button type="submit">Recalculate</button></form>
<form method="post" action="/sort/reset"><button type="submit">Reset sort</button></form>
<form method="post" action="/copy"><button type="submit"{{if not .View.Actions.Copy}} disabled{{end}}>Copy</button></form>
<form method="post" action="/export"><button type="submit"{{if not .View.Actions.Export}} disabled{{end}}>Export</button></form>
</div>
{{- if .View.Empty}}
<p class="empty">{{.View.EmptyMessage}}</p>
{{- else}}
<p>{{.View.TotalText}} descendants, {{.View.VisibleText}} visible</p>
<table id="countsTable">
<thead><tr>
{{- range .View.Headers}}
<th aria-sort="{{.Indicator}}"><form method="post" action="/sort/{{.Column}}"><button type="submit">{{.Label}}</button></form>{{if .Total}} <small>({{.Total}})</small>{{end}}</th>
{{- end}}
</tr></thead>
<tbody>
{{- range .View.Rows}}
<tr><td>{{.Name}}</td><td class="num">{{.Count}}</td><td class="num">{{.Visible}}</td></tr>
{{- end}}
</tbody>
</table>
{{- end}}
<footer>An element counts as visible when its display is not none, its visibility is visible,
its opacity is not 0, its bounding box has a non-zero width and height, and that box intersects the viewport.
Text, comment and other non-element nodes are counted but never visible.</footer>
</body></html>`))

func (p *Panel) handlePage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		View     projection.View
		Selector string
		Msg      string
	}{
		View:     p.View(),
		Selector: p.Selector(),
		Msg:      r.URL.Query().Get("msg"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := panelTmpl.Execute(w, data); err != nil {
		p.cfg.Logger.Error("session: render panel", "error", err)
	}
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
