package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgerrors "github.com/yungbote/mba-counselor/internal/pkg/errors"
)

const sampleCatalog = `
programs:
  - name: Alpha Business School
    specialization: Finance
    fee: "₹1,20,000 per semester"
    accreditation: AACSB, NAAC A++
    website: https://alpha.example
    reviews:
      rating: 4.2
      count: 130
      sentiment: ["strong faculty"]
      source: Shiksha
    excerpts:
      - type: webpage
        source: https://alpha.example/mba
        text: Alpha offers a two year online MBA in finance.
  - name: Beta Institute
    specialization: Marketing
    fee: 45000
`

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(cat.Programs) != 2 {
		t.Fatalf("programs: got=%d", len(cat.Programs))
	}
	alpha := cat.Programs[0]
	if alpha.Reviews == nil || alpha.Reviews.Count != 130 || len(alpha.Excerpts) != 1 {
		t.Fatalf("alpha: %+v", alpha)
	}
	if cat.Programs[1].Fee != "45000" {
		t.Fatalf("numeric fee: got=%q", cat.Programs[1].Fee)
	}
}

func TestParseCatalogRejects(t *testing.T) {
	cases := map[string]string{
		"missing name": "programs:\n  - specialization: Finance\n",
		"duplicate":    "programs:\n  - name: A\n  - name: a\n",
		"unknown type": "programs:\n  - name: A\n    excerpts:\n      - type: podcast\n        text: x\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(raw)); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
				t.Fatalf("want ErrInvalidArgument got=%v", err)
			}
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(path); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("want error for missing file")
	}
}

func TestParseFee(t *testing.T) {
	cases := map[string]float64{
		"₹1,20,000 per semester": 120000,
		"35000":                  35000,
		"INR 42,500.50":          42500.5,
		"":                       0,
		"contact us":             0,
	}
	for in, want := range cases {
		if got := ParseFee(in); got != want {
			t.Fatalf("ParseFee(%q): want=%v got=%v", in, want, got)
		}
	}
}

func TestInfoText(t *testing.T) {
	got := InfoText(CatalogProgram{Name: "Beta", Fee: "45000"})
	if !strings.Contains(got, "Fees: 45000") || !strings.Contains(got, "Accreditations: N/A") {
		t.Fatalf("got=%q", got)
	}
}
