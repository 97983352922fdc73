package crawler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/nao1215/dirharvest/internal/fakesite"
	"github.com/nao1215/dirharvest/internal/model"
)

func twoPageRegion() fakesite.Region {
	return fakesite.Region{
		ID:   "/tehran",
		Name: "Tehran",
		Pages: [][]fakesite.Doctor{
			{{Name: "A"}, {Name: "B"}},
			{{Name: "C"}},
		},
	}
}

// TestPagerNext tests the pagination state machine.
func TestPagerNext(t *testing.T) {
	t.Parallel()

	t.Run("walks pages until the empty marker", func(t *testing.T) {
		t.Parallel()

		site := fakesite.New(t, twoPageRegion())
		p := NewPager(newClient(t), siteURL(t, site), model.Region{ID: "/tehran", Name: "Tehran"}, 1)
		ctx := context.Background()

		out, err := p.Next(ctx)
		if err != nil {
			t.Fatalf("page 1: %v", err)
		}
		if out.Kind != Continue || out.Page != 1 || len(out.Entries) != 2 {
			t.Fatalf("unexpected page 1 outcome %+v", out)
		}
		if p.LastCompleted() != 1 || p.Page() != 2 {
			t.Errorf("expected last=1 next=2, got last=%d next=%d", p.LastCompleted(), p.Page())
		}

		out, err = p.Next(ctx)
		if err != nil {
			t.Fatalf("page 2: %v", err)
		}
		if out.Kind != Continue || out.Page != 2 || len(out.Entries) != 1 {
			t.Fatalf("unexpected page 2 outcome %+v", out)
		}

		out, err = p.Next(ctx)
		if err != nil {
			t.Fatalf("page 3: %v", err)
		}
		if out.Kind != Stop || out.Reason != StopEmptyMarker || out.Page != 3 {
			t.Fatalf("unexpected page 3 outcome %+v", out)
		}
		if p.LastCompleted() != 2 {
			t.Errorf("expected last completed 2, got %d", p.LastCompleted())
		}

		if site.Hits("/tehran") != 1 || site.Hits("/tehran/page-2") != 1 || site.Hits("/tehran/page-3") != 1 {
			t.Error("each page should be fetched exactly once")
		}
	})

	t.Run("stop is sticky and costs no request", func(t *testing.T) {
		t.Parallel()

		site := fakesite.New(t, fakesite.Region{ID: "/empty", Name: "Empty"})
		p := NewPager(newClient(t), siteURL(t, site), model.Region{ID: "/empty"}, 1)

		for range 3 {
			out, err := p.Next(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if out.Kind != Stop {
				t.Fatalf("expected stop, got %v", out.Kind)
			}
		}
		if site.Hits("/empty") != 1 {
			t.Errorf("expected one request, got %d", site.Hits("/empty"))
		}
		if p.LastCompleted() != 0 {
			t.Errorf("empty first page must not complete, got %d", p.LastCompleted())
		}
	})

	t.Run("page without entries stops", func(t *testing.T) {
		t.Parallel()

		site := fakesite.New(t, twoPageRegion())
		site.SetEndStyle(fakesite.EndNoEntries)
		p := NewPager(newClient(t), siteURL(t, site), model.Region{ID: "/tehran"}, 3)

		out, err := p.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if out.Kind != Stop || out.Reason != StopNoEntries {
			t.Errorf("unexpected outcome %+v", out)
		}
	})

	t.Run("404 stops the region", func(t *testing.T) {
		t.Parallel()

		site := fakesite.New(t, twoPageRegion())
		site.SetEndStyle(fakesite.EndNotFound)
		p := NewPager(newClient(t), siteURL(t, site), model.Region{ID: "/tehran"}, 3)

		out, err := p.Next(context.Background())
		if err != nil {
			t.Fatalf("404 must not be an error: %v", err)
		}
		if out.Kind != Stop || out.Reason != StopNotFound {
			t.Errorf("unexpected outcome %+v", out)
		}
	})

	t.Run("transport failure keeps the current page", func(t *testing.T) {
		t.Parallel()

		site := fakesite.New(t, twoPageRegion())
		site.FailPath("/tehran/page-2", http.StatusInternalServerError)
		p := NewPager(newClient(t), siteURL(t, site), model.Region{ID: "/tehran"}, 2)

		if _, err := p.Next(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if p.Page() != 2 || p.Stopped() {
			t.Errorf("pager moved after failure: page=%d stopped=%v", p.Page(), p.Stopped())
		}

		site.Heal()
		out, err := p.Next(context.Background())
		if err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if out.Kind != Continue || out.Page != 2 {
			t.Errorf("unexpected retry outcome %+v", out)
		}
	})

	t.Run("start page below one starts at one", func(t *testing.T) {
		t.Parallel()

		site := fakesite.New(t, twoPageRegion())
		p := NewPager(newClient(t), siteURL(t, site), model.Region{ID: "/tehran"}, 0)
		if p.Page() != 1 {
			t.Errorf("expected page 1, got %d", p.Page())
		}
	})

	t.Run("page delay is a full pause after the caller finishes a page", func(t *testing.T) {
		t.Parallel()

		const delay = 100 * time.Millisecond
		site := fakesite.New(t, twoPageRegion())
		p := NewPager(newClient(t), siteURL(t, site), model.Region{ID: "/tehran"}, 1, WithPageDelay(delay))
		ctx := context.Background()

		if _, err := p.Next(ctx); err != nil {
			t.Fatalf("page 1: %v", err)
		}

		// Processing a page takes longer than the delay itself.
		time.Sleep(2 * delay)

		start := time.Now()
		out, err := p.Next(ctx)
		if err != nil {
			t.Fatalf("page 2: %v", err)
		}
		if out.Page != 2 {
			t.Fatalf("expected page 2, got %+v", out)
		}
		if gap := time.Since(start); gap < delay {
			t.Errorf("expected a pause of at least %v before page 2, got %v", delay, gap)
		}
	})

	t.Run("page delay spaces fetches and honours cancellation", func(t *testing.T) {
		t.Parallel()

		site := fakesite.New(t, twoPageRegion())
		p := NewPager(newClient(t), siteURL(t, site), model.Region{ID: "/tehran"}, 1, WithPageDelay(time.Hour))

		if _, err := p.Next(context.Background()); err != nil {
			t.Fatalf("first page should not wait: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := p.Next(ctx)
		if err == nil {
			t.Fatal("expected the second fetch to wait for the page delay")
		}
		if site.Hits("/tehran/page-2") != 0 {
			t.Error("second page fetched before the delay elapsed")
		}
	})
}

// TestPagerPageURL tests listing URL construction.
func TestPagerPageURL(t *testing.T) {
	t.Parallel()

	site := fakesite.New(t)
	p := NewPager(newClient(t), siteURL(t, site), model.Region{ID: "tehran"}, 1)

	if got := p.PageURL(1); got != site.URL()+"/tehran" {
		t.Errorf("unexpected page 1 URL %q", got)
	}
	if got := p.PageURL(4); got != site.URL()+"/tehran/page-4" {
		t.Errorf("unexpected page 4 URL %q", got)
	}
}
