package infra

import (
	"errors"
	"strings"
	"testing"

	"promptlens/internal/sqlinline"
)

func TestExtractMarker(t *testing.T) {
	query := "--sql 0b0d5d8e-7f0a-4c52-9a51-2f1d6c0c3a11\nselect 1;\n"
	marker, body, err := ExtractMarker(query)
	if err != nil {
		t.Fatalf("ExtractMarker returned error: %v", err)
	}
	if marker != "0b0d5d8e-7f0a-4c52-9a51-2f1d6c0c3a11" {
		t.Fatalf("marker = %q", marker)
	}
	if strings.TrimSpace(body) != "select 1;" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUntaggedSQL(t *testing.T) {
	for _, q := range []string{"", "select 1;", "--sql nope\nselect 1;"} {
		if _, _, err := ExtractMarker(q); err == nil {
			t.Fatalf("ExtractMarker(%q) expected error", q)
		}
	}
	if _, _, err := ExtractMarker("-- plain comment\nselect 1;"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("expected ErrMissingMarker, got %v", err)
	}
}

func TestInlineQueriesCarryMarkers(t *testing.T) {
	queries := map[string]string{
		"QSelectIntegrationToken": sqlinline.QSelectIntegrationToken,
		"QUpsertIntegrationToken": sqlinline.QUpsertIntegrationToken,
		"QInsertAnalysis":         sqlinline.QInsertAnalysis,
		"QListRecentAnalyses":     sqlinline.QListRecentAnalyses,
	}
	seen := map[string]string{}
	for name, q := range queries {
		marker, _, err := ExtractMarker(q)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if other, dup := seen[marker]; dup {
			t.Fatalf("%s reuses marker of %s", name, other)
		}
		seen[marker] = name
	}
}
