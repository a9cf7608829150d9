package rpcapi

import (
	"testing"

	"github.com/ksedova/fulltext/internal/fulltext/service"
	"github.com/ksedova/fulltext/pkg/grpc"
	"github.com/ksedova/fulltext/pkg/proto"
)

func TestRegisterAddsThreeMethods(t *testing.T) {
	svc := service.New()
	if err := svc.AddDocument(1, "the quick brown fox"); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	srv := grpc.NewServer()
	Register(srv, svc)
	if srv.MethodCount() != 3 {
		t.Fatalf("MethodCount() = %d, want 3", srv.MethodCount())
	}
}

func TestSearchResultsModes(t *testing.T) {
	svc := service.New()
	if err := svc.AddDocument(1, "the quick brown fox jumps"); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if err := svc.AddDocument(2, "a lazy dog sleeps"); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	ids := searchResults(svc, "ids", "fox", 10)
	if len(ids) != 1 || ids[0].DocID != 1 {
		t.Fatalf("ids mode = %+v, want [{DocID:1}]", ids)
	}

	scored := searchResults(svc, "scored", "fox", 10)
	if len(scored) != 1 || scored[0].Score <= 0 {
		t.Fatalf("scored mode = %+v, want one positively-scored hit", scored)
	}

	snippets := searchResults(svc, "snippets", "fox", 10)
	if len(snippets) != 1 || snippets[0].Snippet == "" {
		t.Fatalf("snippets mode = %+v, want a non-empty snippet", snippets)
	}
}

func TestServiceNReflectsDocumentCount(t *testing.T) {
	empty := service.New()
	if empty.N() != 0 {
		t.Fatalf("N() = %d, want 0", empty.N())
	}

	loaded := service.New()
	if err := loaded.AddDocument(1, "hello"); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if loaded.N() != 1 {
		t.Fatalf("N() = %d, want 1", loaded.N())
	}
}

var _ = proto.HealthCheckResponse{}
