package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/dirharvest/internal/model"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	return records
}

func sampleRow(name string) model.Row {
	return model.Row{
		Name:           name,
		Specialty:      "Cardiologist",
		ImageURL:       "https://cdn.example.com/a.jpg",
		City:           "Tehran",
		StreetAddress:  "Valiasr St, No. 10",
		LicenseNumber:  "12345",
		PhoneNumbers:   "021-1,021-2",
		WazeLink:       model.NotAvailable,
		GoogleMapsLink: model.NotAvailable,
	}
}

// TestCSV tests the append-only CSV sink.
func TestCSV(t *testing.T) {
	t.Parallel()

	t.Run("new file gets the header then rows", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out", "doctors_data.csv")
		s, err := OpenCSV(path)
		if err != nil {
			t.Fatalf("failed to open: %v", err)
		}
		if err := s.Write(sampleRow("A")); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		records := readCSV(t, path)
		if len(records) != 2 {
			t.Fatalf("expected header and one row, got %d lines", len(records))
		}
		if strings.Join(records[0], "|") != strings.Join(model.Columns, "|") {
			t.Errorf("unexpected header %v", records[0])
		}
		if records[1][0] != "A" || records[1][4] != "Valiasr St, No. 10" || records[1][6] != "021-1,021-2" {
			t.Errorf("unexpected row %v", records[1])
		}
	})

	t.Run("reopening appends without a second header", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "doctors_data.csv")
		for _, name := range []string{"A", "B"} {
			s, err := OpenCSV(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Write(sampleRow(name)); err != nil {
				t.Fatal(err)
			}
			if err := s.Close(); err != nil {
				t.Fatal(err)
			}
		}

		records := readCSV(t, path)
		if len(records) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(records))
		}
		if records[1][0] != "A" || records[2][0] != "B" {
			t.Errorf("rows out of order: %v", records)
		}
	})

	t.Run("empty existing file gets the header", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "doctors_data.csv")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatal(err)
		}
		s, err := OpenCSV(path)
		if err != nil {
			t.Fatal(err)
		}
		_ = s.Close()

		records := readCSV(t, path)
		if len(records) != 1 || records[0][0] != "Name" {
			t.Errorf("expected only the header, got %v", records)
		}
	})

	t.Run("torn last line is terminated before appending", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "doctors_data.csv")
		torn := strings.Join(model.Columns, ",") + "\nA,Cardio"
		if err := os.WriteFile(path, []byte(torn), 0600); err != nil {
			t.Fatal(err)
		}

		s, err := OpenCSV(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Write(sampleRow("B")); err != nil {
			t.Fatal(err)
		}
		_ = s.Close()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) != 3 || lines[1] != "A,Cardio" || !strings.HasPrefix(lines[2], "B,") {
			t.Errorf("unexpected lines %q", lines)
		}
	})

	t.Run("fields needing quotes survive", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "doctors_data.csv")
		s, err := OpenCSV(path)
		if err != nil {
			t.Fatal(err)
		}
		row := sampleRow(`Dr. "Ali", Jr.`)
		row.StreetAddress = "line one\nline two"
		row.City = "تهران"
		if err := s.Write(row); err != nil {
			t.Fatal(err)
		}
		_ = s.Close()

		records := readCSV(t, path)
		got := records[1]
		if got[0] != row.Name || got[4] != row.StreetAddress || got[3] != "تهران" {
			t.Errorf("round trip changed fields: %q", got)
		}
	})

	t.Run("concurrent writes produce whole rows", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "doctors_data.csv")
		s, err := OpenCSV(path)
		if err != nil {
			t.Fatal(err)
		}

		var wg sync.WaitGroup
		for i := range 40 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Write(sampleRow(strings.Repeat("x", i+1)))
			}()
		}
		wg.Wait()
		if s.Rows() != 40 {
			t.Errorf("expected 40 rows, got %d", s.Rows())
		}
		if err := s.Sync(); err != nil {
			t.Fatal(err)
		}
		_ = s.Close()

		records := readCSV(t, path)
		if len(records) != 41 {
			t.Errorf("expected 41 lines, got %d", len(records))
		}
		for _, r := range records[1:] {
			if len(r) != len(model.Columns) {
				t.Errorf("row with %d fields: %v", len(r), r)
			}
		}
	})
}
