package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/dirharvest/internal/fakesite"
)

// cli runs dirharvest commands against one state directory and an empty
// config file, so nothing from the machine running the tests leaks in.
type cli struct {
	t      *testing.T
	dir    string
	config string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "harvest.yaml")
	if err := os.WriteFile(configPath, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return &cli{t: t, dir: dir, config: configPath}
}

// run executes the root command with args and returns stdout and stderr.
func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{args[0], "-c", c.config, "--state-dir", c.dir}, args[1:]...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// crawl runs the crawl command against site without pacing.
func (c *cli) crawl(site *fakesite.Site, args ...string) (string, error) {
	c.t.Helper()

	base := []string{"crawl", "--base-url", site.URL(), "--page-delay", "0s", "--region-delay", "0s"}
	stdout, _, err := c.run(append(base, args...)...)
	return stdout, err
}

func (c *cli) path(name string) string {
	return filepath.Join(c.dir, name)
}

// rows reads the output CSV without its header.
func (c *cli) rows() [][]string {
	c.t.Helper()

	f, err := os.Open(c.path("doctors_data.csv"))
	if err != nil {
		c.t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		c.t.Fatalf("failed to read output: %v", err)
	}
	if len(records) == 0 {
		c.t.Fatal("expected a header row")
	}
	return records[1:]
}

func doctor(name string, offices ...fakesite.Office) fakesite.Doctor {
	return fakesite.Doctor{
		Name:      name,
		Specialty: "Cardiology",
		Portrait:  "https://cdn.example.com/" + name + ".jpg",
		License:   "M-" + name,
		Offices:   offices,
	}
}

func twoRegions() []fakesite.Region {
	return []fakesite.Region{
		{
			ID:   "/tehran",
			Name: "Tehran",
			Pages: [][]fakesite.Doctor{
				{
					doctor("Sara", fakesite.Office{ID: "11", Street: "Valiasr St", Phones: []string{"021-1"}}),
					doctor("Reza", fakesite.Office{ID: "12", Street: "Enghelab St"}, fakesite.Office{ID: "13", Street: "Azadi St"}),
				},
				{doctor("Ali", fakesite.Office{ID: "14", Street: "Jordan St"})},
			},
		},
		{
			ID:    "/shiraz",
			Name:  "Shiraz",
			Pages: [][]fakesite.Doctor{{doctor("Mina", fakesite.Office{ID: "21", Street: "Zand Blvd"})}},
		},
	}
}
