package kernel_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/pagelift/pkg/kernel"
)

func TestParseDocumentID(t *testing.T) {
	id := kernel.NewDocumentID()
	got, err := kernel.ParseDocumentID(id.String())
	if err != nil || got != id {
		t.Fatalf("round trip failed: %v %v", got, err)
	}
	if _, err := kernel.ParseDocumentID("../etc/passwd"); err == nil {
		t.Fatalf("non-uuid ids must be rejected")
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if _, ok := kernel.DocumentIDFrom(ctx); ok {
		t.Fatalf("empty context has no document id")
	}

	ctx = kernel.WithDocumentID(ctx, "doc-1")
	ctx = kernel.WithJobID(ctx, kernel.NewJobID("job-1"))

	if id, ok := kernel.DocumentIDFrom(ctx); !ok || id != "doc-1" {
		t.Fatalf("unexpected document id %q", id)
	}
	if id, ok := kernel.JobIDFrom(ctx); !ok || id != "job-1" {
		t.Fatalf("unexpected job id %q", id)
	}
}

func TestPagination(t *testing.T) {
	opts := kernel.PaginationOptions{Page: 0, PageSize: 500}.Normalize(100)
	if opts.Page != 1 || opts.PageSize != 100 || opts.Offset() != 0 {
		t.Fatalf("unexpected normalized options %+v", opts)
	}
	if (kernel.PaginationOptions{Page: 3, PageSize: 10}).Offset() != 20 {
		t.Fatalf("unexpected offset")
	}

	p := kernel.NewPaginated([]int{1, 2}, 2, 2, 5)
	if p.Page.Pages != 3 || !p.HasNext() || !p.HasPrevious() || p.Empty {
		t.Fatalf("unexpected page %+v", p)
	}
	if !kernel.NewPaginated([]int{}, 1, 10, 0).Empty {
		t.Fatalf("no items should be empty")
	}
}
