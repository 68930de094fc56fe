package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/lumine/darshan-bookings/internal/domain"
)

func TestFetchTemplesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/temples" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"temples":[
			{"id":1,"name":"Somnath","location":"Veraval"},
			{"id":2,"name":"Dwarkadhish","location":"Dwarka"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	got := c.FetchTemples(context.Background())

	if len(got) != 2 {
		t.Fatalf("expected 2 temples, got %d", len(got))
	}
	if got[0].Name != "Somnath" || got[1].Name != "Dwarkadhish" {
		t.Errorf("unexpected temples %+v", got)
	}
}

func TestFetchTemplesDedupes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"temples":[
			{"id":1,"name":"Somnath"},
			{"id":1,"name":"Somnath (renamed)"},
			{"id":2,"name":"Dwarkadhish"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	got := c.FetchTemples(context.Background())

	if len(got) != 2 {
		t.Fatalf("expected duplicates collapsed to 2, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Somnath" {
		t.Errorf("first occurrence should win, got %q", got[0].Name)
	}
}

func TestFetchTemplesFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	got := c.FetchTemples(context.Background())

	if !reflect.DeepEqual(got, domain.CanonicalTemples()) {
		t.Fatalf("expected canonical fallback, got %+v", got)
	}
}

func TestFetchTemplesFallsBackOnUnreachableHost(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 500*time.Millisecond)
	got := c.FetchTemples(context.Background())

	if !reflect.DeepEqual(got, domain.CanonicalTemples()) {
		t.Fatalf("expected canonical fallback, got %+v", got)
	}
}

func TestFetchTemplesFallsBackOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"temples": "nope"`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	got := c.FetchTemples(context.Background())

	if !reflect.DeepEqual(got, domain.CanonicalTemples()) {
		t.Fatalf("expected canonical fallback, got %+v", got)
	}
}

func TestFetchTemplesFallsBackOnEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"temples":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	got := c.FetchTemples(context.Background())

	if !reflect.DeepEqual(got, domain.CanonicalTemples()) {
		t.Fatalf("expected canonical fallback for empty directory, got %+v", got)
	}
}

func TestResolveLabelWins(t *testing.T) {
	r := NewResolver(domain.CanonicalTemples())

	// the directory knows id 3 under a different name; the label the
	// user actually saw takes precedence
	id, name := r.Resolve("3", "Nageshwar")
	if id != 3 || name != "Nageshwar" {
		t.Fatalf("got (%d, %q), want (3, %q)", id, name, "Nageshwar")
	}
}

func TestResolveFallsBackToDirectory(t *testing.T) {
	r := NewResolver(domain.CanonicalTemples())

	id, name := r.Resolve("3", "Select a temple")
	if id != 3 || name != "Nageshwar Jyotirlinga" {
		t.Fatalf("got (%d, %q), want directory name", id, name)
	}

	id, name = r.Resolve("2", "")
	if id != 2 || name != "Dwarkadhish Temple" {
		t.Fatalf("got (%d, %q), want directory name", id, name)
	}
}

func TestResolveUnknownIDKeepsIDEmptyName(t *testing.T) {
	r := NewResolver(domain.CanonicalTemples())

	id, name := r.Resolve("99", "")
	if id != 99 || name != "" {
		t.Fatalf("got (%d, %q), want (99, \"\")", id, name)
	}
}

func TestResolveUnselected(t *testing.T) {
	r := NewResolver(domain.CanonicalTemples())

	cases := []string{"", "0", "-1", "abc", "   "}
	for _, raw := range cases {
		if id, name := r.Resolve(raw, "whatever"); id != 0 || name != "" {
			t.Errorf("Resolve(%q) = (%d, %q), want (0, \"\")", raw, id, name)
		}
	}
}

func TestResolveFloatValue(t *testing.T) {
	r := NewResolver(domain.CanonicalTemples())

	id, name := r.Resolve("2.0", "Select a temple")
	if id != 2 || name != "Dwarkadhish Temple" {
		t.Fatalf("float-typed id should coerce, got (%d, %q)", id, name)
	}
}

func TestBackfill(t *testing.T) {
	r := NewResolver(nil)

	// before the directory lands, the name stays empty
	if got := r.Backfill(3, ""); got != "" {
		t.Fatalf("premature backfill: %q", got)
	}

	r.SetTemples(domain.CanonicalTemples())
	if got := r.Backfill(3, ""); got != "Nageshwar Jyotirlinga" {
		t.Fatalf("backfill = %q", got)
	}

	// an already-resolved name is never overwritten
	if got := r.Backfill(3, "Custom Label"); got != "Custom Label" {
		t.Fatalf("backfill overwrote resolved name: %q", got)
	}
}
