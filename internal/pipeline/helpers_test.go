package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/dirharvest/internal/checkpoint"
	"github.com/nao1215/dirharvest/internal/crawler"
	"github.com/nao1215/dirharvest/internal/fakesite"
	"github.com/nao1215/dirharvest/internal/model"
	"github.com/nao1215/dirharvest/internal/sink"
	"github.com/nao1215/dirharvest/internal/transport"
)

// harness wires the real components against a fake directory.
type harness struct {
	t      *testing.T
	site   *fakesite.Site
	dir    string
	output string
	ckpt   string

	// wrapStore, when set, wraps the checkpoint store of the next run.
	wrapStore func(checkpoint.Store) checkpoint.Store
}

func newHarness(t *testing.T, regions ...fakesite.Region) *harness {
	t.Helper()

	dir := t.TempDir()
	return &harness{
		t:      t,
		site:   fakesite.New(t, regions...),
		dir:    dir,
		output: filepath.Join(dir, "doctors_data.csv"),
		ckpt:   filepath.Join(dir, "crawler_db.json"),
	}
}

// run performs one complete run: load checkpoint, crawl, close output.
func (h *harness) run(ctx context.Context, opts ...Option) (*model.RunSummary, error) {
	h.t.Helper()

	client, err := transport.New()
	if err != nil {
		h.t.Fatal(err)
	}
	base, err := url.Parse(h.site.URL())
	if err != nil {
		h.t.Fatal(err)
	}

	var store checkpoint.Store = checkpoint.NewFileStore(h.ckpt)
	if h.wrapStore != nil {
		store = h.wrapStore(store)
	}
	state, err := store.Load(context.Background())
	if err != nil {
		h.t.Fatal(err)
	}

	out, err := sink.OpenCSV(h.output)
	if err != nil {
		h.t.Fatal(err)
	}
	defer out.Close()

	orch, err := NewOrchestrator(Components{
		Regions: crawler.NewEnumerator(client, h.site.URL()+fakesite.RegionsPath),
		Pagers: func(region model.Region, start int) PageSource {
			return crawler.NewPager(client, base, region, start)
		},
		Extractor: crawler.NewExtractor(client, h.site.URL()+fakesite.PhonesPath),
		Sink:      out,
		Store:     store,
		State:     state,
	}, opts...)
	if err != nil {
		h.t.Fatal(err)
	}
	return orch.Run(ctx)
}

// rows returns the data rows of the output file.
func (h *harness) rows() [][]string {
	h.t.Helper()

	f, err := os.Open(h.output)
	if err != nil {
		h.t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		h.t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) == 0 {
		h.t.Fatal("output has no header")
	}
	return records[1:]
}

// state loads the persisted checkpoint.
func (h *harness) state() *checkpoint.State {
	h.t.Helper()

	st, err := checkpoint.NewFileStore(h.ckpt).Load(context.Background())
	if err != nil {
		h.t.Fatal(err)
	}
	return st
}

func names(rows [][]string) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r[0]]++
	}
	return counts
}

func doctor(name string, offices ...fakesite.Office) fakesite.Doctor {
	return fakesite.Doctor{
		Name:      name,
		Specialty: "General",
		Portrait:  "https://cdn.example.com/" + name + ".jpg",
		License:   "L-" + name,
		Offices:   offices,
	}
}

func office(id, street string, phones ...string) fakesite.Office {
	return fakesite.Office{ID: id, Street: street, Phones: phones}
}

// failingStore passes the first ok saves through and fails every later one,
// like a process that dies while saving.
type failingStore struct {
	checkpoint.Store
	ok    int
	saves int
}

var errSaveFailed = errors.New("disk full")

func (s *failingStore) Save(ctx context.Context, state *checkpoint.State) error {
	s.saves++
	if s.saves > s.ok {
		return errSaveFailed
	}
	return s.Store.Save(ctx, state)
}
