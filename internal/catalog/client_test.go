package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lakeview-dev/lakeview/internal/apierr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, server.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSearchSendsQueryAndBearer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/entries:search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		query := r.URL.Query()
		if query.Get("query") == "" {
			t.Error("expected query parameter")
		}
		if got := query["type"]; len(got) != 2 {
			t.Errorf("expected 2 type filters, got %v", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entries":[{"id":"p/d/t1","displayName":"orders","type":"TABLE","system":"bigquery"}],"nextPageToken":"tok-next"}`))
	})

	result, err := client.Search(context.Background(), "tok-123", SearchQuery{
		Query: "orders",
		Types: []string{EntryTypeTable, EntryTypeView},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Entries[0].DisplayName != "orders" {
		t.Fatalf("unexpected entry %+v", result.Entries[0])
	}
	if result.NextPageToken != "tok-next" {
		t.Fatalf("expected next page token, got %q", result.NextPageToken)
	}
}

func TestGetEntryRequiresID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.GetEntry(context.Background(), "tok", "  "); err == nil {
		t.Fatal("expected error for empty entry id")
	}
}

func TestUnauthorizedExpiredTagsAuthExpired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":"UNAUTHENTICATED","message":"access token expired"}}`))
	})

	_, err := client.Search(context.Background(), "stale", SearchQuery{Query: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := apierr.KindOf(err); got != apierr.KindAuthExpired {
		t.Fatalf("expected KindAuthExpired, got %v", got)
	}
	var tagged *apierr.Error
	if !errors.As(err, &tagged) {
		t.Fatal("expected tagged error")
	}
	if tagged.Status != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", tagged.Status)
	}
}

func TestForbiddenTagsAuthInvalid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"status":"PERMISSION_DENIED","message":"caller lacks catalog.entries.get"}}`))
	})

	_, err := client.GetEntry(context.Background(), "tok", "p/d/t1")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := apierr.KindOf(err); got != apierr.KindAuthInvalid {
		t.Fatalf("expected KindAuthInvalid, got %v", got)
	}
}

func TestServerErrorStaysUntagged(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Lineage(context.Background(), "tok", "p/d/t1")
	if err == nil {
		t.Fatal("expected error")
	}
	if apierr.IsAuth(err) {
		t.Fatal("5xx must not be classified as an auth failure")
	}
}

func TestProfileScanDecodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/entries/p%2Fd%2Ft1/profile" && r.URL.Path != "/v1/entries/p/d/t1/profile" {
			// Path escaping differs between servers; accept the escaped form.
			if r.URL.EscapedPath() != "/v1/entries/p%2Fd%2Ft1/profile" {
				t.Errorf("unexpected path %q", r.URL.EscapedPath())
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entryId":"p/d/t1","rowCount":1200,"columns":[{"name":"id","nullRatio":0,"distinctRatio":1}]}`))
	})

	scan, err := client.ProfileScan(context.Background(), "tok", "p/d/t1")
	if err != nil {
		t.Fatalf("profile scan: %v", err)
	}
	if scan.RowCount != 1200 {
		t.Fatalf("expected row count 1200, got %d", scan.RowCount)
	}
	if len(scan.Columns) != 1 || scan.Columns[0].Name != "id" {
		t.Fatalf("unexpected columns %+v", scan.Columns)
	}
}
