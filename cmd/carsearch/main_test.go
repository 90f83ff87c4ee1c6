package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/carsearch/internal/testutil"
	"github.com/Sternrassler/carsearch/pkg/export"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func newCatalog(t *testing.T) *testutil.MockCatalog {
	t.Helper()

	mock := testutil.NewMockCatalog()
	t.Cleanup(mock.Close)

	mock.SetPage(1, testutil.NewPageResponse(testutil.DefaultListing("c1"), testutil.DefaultListing("c2")))
	mock.SetPage(2, testutil.NewPageResponse(testutil.DefaultListing("c3")))
	return mock
}

func TestRun_WritesCSVFile(t *testing.T) {
	mock := newCatalog(t)
	path := filepath.Join(t.TempDir(), "results.csv")

	_, err := executeRoot(t,
		"--base-url", mock.URL(),
		"--rps", "0",
		"--sort", "Price (Highest)",
		"--extra", "min_year=2016",
		"--output", path,
	)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	table, err := export.ReadCSV(f)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	got := table.Column("id")
	want := []string{"c1", "c2", "c3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ids = %v, want %v", got, want)
	}

	query := mock.GetLastQuery()
	if query.Get("sort") != "price-desc" {
		t.Errorf("sort = %q, want %q", query.Get("sort"), "price-desc")
	}
	if query.Get("min_year") != "2016" {
		t.Errorf("min_year = %q, want %q", query.Get("min_year"), "2016")
	}
	if query.Get("make") != "BMW" {
		t.Errorf("make = %q, want %q", query.Get("make"), "BMW")
	}
}

func TestRun_WritesCSVToStdout(t *testing.T) {
	mock := newCatalog(t)

	out, err := executeRoot(t,
		"--base-url", mock.URL(),
		"--rps", "0",
		"--limit", "1",
	)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("output lines = %d, want 2 (header + 1 row):\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "model_name,") {
		t.Errorf("header = %q", lines[0])
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("requests = %d, want 1", mock.GetRequestCount())
	}
}

func TestRun_InvalidSort(t *testing.T) {
	mock := newCatalog(t)

	_, err := executeRoot(t, "--base-url", mock.URL(), "--sort", "Cheapest")
	if err == nil {
		t.Fatal("Execute() error = nil, want invalid sort error")
	}
	if !strings.Contains(err.Error(), `invalid sort option "Cheapest"`) {
		t.Errorf("error = %q", err.Error())
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("requests = %d, want 0", mock.GetRequestCount())
	}
}

func TestRun_ConfigFile(t *testing.T) {
	mock := newCatalog(t)
	path := filepath.Join(t.TempDir(), "carsearch.yaml")
	content := "search:\n  make: AUDI\n  limit: 2\nclient:\n  requests_per_second: 0\n  base_url: " + mock.URL() + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := executeRoot(t, "--config", path, "--model", "A6")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := len(strings.Split(strings.TrimSpace(out), "\n")); got != 3 {
		t.Errorf("output lines = %d, want 3", got)
	}
	query := mock.GetLastQuery()
	if query.Get("make") != "AUDI" || query.Get("model") != "A6" {
		t.Errorf("make/model = %q/%q, want AUDI/A6", query.Get("make"), query.Get("model"))
	}
}

func TestRun_UnreachableRedis(t *testing.T) {
	mock := newCatalog(t)

	_, err := executeRoot(t, "--base-url", mock.URL(), "--redis", "127.0.0.1:1")
	if err == nil {
		t.Fatal("Execute() error = nil, want redis connection error")
	}
	if !strings.Contains(err.Error(), "connect to redis") {
		t.Errorf("error = %q", err.Error())
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("requests = %d, want 0", mock.GetRequestCount())
	}
}
