package ingest

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	pkgerrors "github.com/yungbote/mba-counselor/internal/pkg/errors"
)

// Catalog is the operator-maintained list of programs fed to the importer.
type Catalog struct {
	Programs []CatalogProgram `yaml:"programs" json:"programs"`
}

type CatalogProgram struct {
	Name           string    `yaml:"name" json:"name"`
	Specialization string    `yaml:"specialization" json:"specialization"`
	Fee            string    `yaml:"fee" json:"fee"`
	Subsidy        string    `yaml:"subsidy" json:"subsidy,omitempty"`
	Accreditation  string    `yaml:"accreditation" json:"accreditation,omitempty"`
	Website        string    `yaml:"website" json:"website,omitempty"`
	LandingPage    string    `yaml:"landing_page" json:"landing_page,omitempty"`
	BrochureURL    string    `yaml:"brochure_url" json:"brochure_url,omitempty"`
	BrochureFile   string    `yaml:"brochure_file" json:"brochure_file,omitempty"`
	AlumniStatus   *bool     `yaml:"alumni_status" json:"alumni_status,omitempty"`
	Reviews        *Reviews  `yaml:"reviews" json:"reviews,omitempty"`
	Excerpts       []Excerpt `yaml:"excerpts" json:"excerpts,omitempty"`
}

type Reviews struct {
	Rating    float64  `yaml:"rating" json:"rating"`
	Count     int      `yaml:"count" json:"count"`
	Sentiment []string `yaml:"sentiment" json:"sentiment,omitempty"`
	Source    string   `yaml:"source" json:"source,omitempty"`
}

// Excerpt is one block of program text tagged with its content category.
type Excerpt struct {
	Type   string `yaml:"type" json:"type"`
	Source string `yaml:"source" json:"source,omitempty"`
	Text   string `yaml:"text" json:"text"`
}

func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := map[string]bool{}
	for i := range cat.Programs {
		p := &cat.Programs[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: %w: name required", i, pkgerrors.ErrInvalidArgument)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return nil, fmt.Errorf("catalog entry %q: %w: duplicate name", p.Name, pkgerrors.ErrInvalidArgument)
		}
		seen[key] = true
		for j := range p.Excerpts {
			ex := &p.Excerpts[j]
			ex.Type = strings.ToLower(strings.TrimSpace(ex.Type))
			if !validContentType(ex.Type) {
				return nil, fmt.Errorf("catalog entry %q excerpt %d: %w: unknown type %q", p.Name, j, pkgerrors.ErrInvalidArgument, ex.Type)
			}
		}
	}
	return &cat, nil
}

func validContentType(t string) bool {
	for _, known := range types.AllContentTypes {
		if t == known {
			return true
		}
	}
	return false
}

var feeNumber = regexp.MustCompile(`\d[\d,]*(\.\d+)?`)

// ParseFee reads the first number in s, ignoring currency symbols and thousands separators.
// "₹1,20,000 per semester" is 120000. No number is 0.
func ParseFee(s string) float64 {
	m := feeNumber.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

// InfoText is the structured-fact excerpt stored when a catalog entry has none.
func InfoText(p CatalogProgram) string {
	return fmt.Sprintf("%s | Fees: %s | Specialization: %s | Accreditations: %s",
		p.Name, orNA(p.Fee), orNA(p.Specialization), orNA(p.Accreditation))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return strings.TrimSpace(s)
}
