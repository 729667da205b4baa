package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/domcensus/internal/kit"
	"github.com/hazyhaar/domcensus/projection"
)

// Requests and responses shared by the HTTP and MCP front ends.

type selectRequest struct {
	Selector string `json:"selector"`
}

type sortRequest struct {
	Column string `json:"column"`
}

type emptyRequest struct{}

type exportResponse struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Markdown string `json:"markdown"`
}

type copyResponse struct {
	Method string `json:"method"`
}

func (p *Panel) endpoint(name string, ep kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Logging(p.cfg.Logger, name))(ep)
}

func (p *Panel) viewEndpoint() kit.Endpoint {
	return p.endpoint("view", func(_ context.Context, _ any) (any, error) {
		return p.View(), nil
	})
}

func (p *Panel) selectEndpoint() kit.Endpoint {
	return p.endpoint("select", func(ctx context.Context, req any) (any, error) {
		r := req.(*selectRequest)
		sel := strings.TrimSpace(r.Selector)
		if sel == "" {
			return nil, fmt.Errorf("%w: selector is required", ErrInvalidRequest)
		}
		return p.Select(ctx, sel)
	})
}

func (p *Panel) refreshEndpoint() kit.Endpoint {
	return p.endpoint("refresh", func(ctx context.Context, _ any) (any, error) {
		return p.Refresh(ctx)
	})
}

func (p *Panel) sortEndpoint() kit.Endpoint {
	return p.endpoint("sort", func(_ context.Context, req any) (any, error) {
		r := req.(*sortRequest)
		col, err := projection.ParseColumn(r.Column)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return p.ClickHeader(col), nil
	})
}

func (p *Panel) resetSortEndpoint() kit.Endpoint {
	return p.endpoint("reset_sort", func(_ context.Context, _ any) (any, error) {
		return p.ResetSort(), nil
	})
}

func (p *Panel) exportEndpoint() kit.Endpoint {
	return p.endpoint("export", func(ctx context.Context, _ any) (any, error) {
		r, err := p.Export(ctx)
		if err != nil {
			return nil, err
		}
		return exportResponse{ID: r.ID, FileName: r.FileName(), Markdown: r.Markdown}, nil
	})
}

func (p *Panel) copyEndpoint() kit.Endpoint {
	return p.endpoint("copy", func(ctx context.Context, _ any) (any, error) {
		method, err := p.Copy(ctx)
		if err != nil {
			return nil, err
		}
		return copyResponse{Method: method}, nil
	})
}
