package crawler

import (
	"net/url"
	"testing"

	"github.com/nao1215/dirharvest/internal/fakesite"
	"github.com/nao1215/dirharvest/internal/transport"
)

func newClient(t *testing.T) *transport.Client {
	t.Helper()

	c, err := transport.New()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func siteURL(t *testing.T, site *fakesite.Site) *url.URL {
	t.Helper()

	u, err := url.Parse(site.URL())
	if err != nil {
		t.Fatal(err)
	}
	return u
}
