package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trezcool/ontime/core"
)

func newTestClient(srvURL string, debounce time.Duration) *Client {
	return NewClient(&core.Config{
		Tracker: core.TrackerConfig{
			DirectoryURL:   srvURL,
			SearchDebounce: debounce,
			RequestTimeout: 5 * time.Second,
		},
	})
}

func TestClient_Search(t *testing.T) {
	insts := []Institution{
		{ID: 1, Name: "MIT", Slug: "mit", Website: "https://mit.edu"},
	}
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		switch r.URL.Path {
		case "/v1/institutions/search":
			if q := r.URL.Query().Get("q"); q != "mit" {
				t.Errorf("q = %q, want mit", q)
			}
			_ = json.NewEncoder(w).Encode(institutionsPayload{Institutions: insts})
		case "/v1/institutions":
			if ids := r.URL.Query().Get("ids"); ids != "1,2" {
				t.Errorf("ids = %q, want 1,2", ids)
			}
			_ = json.NewEncoder(w).Encode(institutionsPayload{Institutions: insts})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, time.Millisecond)
	ctx := context.Background()

	t.Run("blank query short-circuits without a request", func(t *testing.T) {
		got, err := client.Search(ctx, "   ")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Search() = %+v, want empty", got)
		}
		if n := atomic.LoadInt32(&requests); n != 0 {
			t.Errorf("server hit %d times, want 0", n)
		}
	})

	t.Run("query trimmed and sent", func(t *testing.T) {
		got, err := client.Search(ctx, " mit ")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 || got[0].Slug != "mit" {
			t.Errorf("Search() = %+v", got)
		}
	})

	t.Run("get by ids", func(t *testing.T) {
		got, err := client.GetByIDs(ctx, 1, 2)
		if err != nil {
			t.Fatalf("GetByIDs() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("GetByIDs() = %+v", got)
		}
	})

	t.Run("no ids short-circuits", func(t *testing.T) {
		before := atomic.LoadInt32(&requests)
		got, err := client.GetByIDs(ctx)
		if err != nil {
			t.Fatalf("GetByIDs() error = %v", err)
		}
		if len(got) != 0 || atomic.LoadInt32(&requests) != before {
			t.Error("GetByIDs() with no ids hit the server")
		}
	})
}

func TestClient_SearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, time.Millisecond)
	if _, err := client.Search(context.Background(), "mit"); err == nil {
		t.Error("Search() expected an error on status 500")
	}
}

func TestDebounced_collapsesBursts(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		_ = json.NewEncoder(w).Encode(institutionsPayload{
			Institutions: []Institution{{ID: 1, Name: "Result for " + r.URL.Query().Get("q")}},
		})
	}))
	defer srv.Close()

	deb := NewDebounced(newTestClient(srv.URL, 0), 50*time.Millisecond)
	defer deb.Close()

	// a typing burst: each keystroke lands before the debounce window elapses
	deb.Submit("m")
	deb.Submit("mi")
	deb.Submit("mit")

	select {
	case res := <-deb.Results():
		if res.Err != nil {
			t.Fatalf("result error = %v", res.Err)
		}
		if res.Query != "mit" {
			t.Errorf("Query = %q, want mit (only the settled query runs)", res.Query)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no result delivered")
	}

	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestDebounced_blankQueryClearsImmediately(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer srv.Close()

	deb := NewDebounced(newTestClient(srv.URL, 0), 50*time.Millisecond)
	defer deb.Close()

	deb.Submit("   ")

	select {
	case res := <-deb.Results():
		if res.Query != "" || len(res.Institutions) != 0 || res.Err != nil {
			t.Errorf("result = %+v, want empty", res)
		}
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
	if n := atomic.LoadInt32(&requests); n != 0 {
		t.Errorf("server hit %d times, want 0", n)
	}
}

func TestDebounced_staleResponseNeverWins(t *testing.T) {
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "slow" {
			close(slowStarted)
			select {
			case <-releaseSlow:
			case <-r.Context().Done(): // canceled by a newer query
			}
		}
		_ = json.NewEncoder(w).Encode(institutionsPayload{
			Institutions: []Institution{{ID: 1, Name: q}},
		})
	}))
	defer srv.Close()

	deb := NewDebounced(newTestClient(srv.URL, 0), time.Millisecond)
	defer deb.Close()

	deb.Submit("slow")
	<-slowStarted // the slow query is in flight

	deb.Submit("fast")
	defer close(releaseSlow)

	select {
	case res := <-deb.Results():
		if res.Err != nil {
			t.Fatalf("result error = %v", res.Err)
		}
		if res.Query != "fast" {
			t.Errorf("Query = %q, want fast (stale response discarded)", res.Query)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no result delivered")
	}

	// the superseded query must never surface
	select {
	case res := <-deb.Results():
		t.Errorf("unexpected second result: %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
}
