package normalization

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

// AliasTableVersion is bumped whenever the built-in tables change, so sync
// reports can record which mapping produced a given promotion.
const AliasTableVersion = 3

// Exam board and qualification strings arrive loosely formatted from
// scraped documents. The tables below canonicalize them; an unknown string
// is a typed failure, never a silent default, because defaulting would
// misclassify curricula.
var examBoardAliases = map[string]string{
	"aqa":                     "AQA",
	"ocr":                     "OCR",
	"edexcel":                 "EDEXCEL",
	"pearson":                 "EDEXCEL",
	"pearson edexcel":         "EDEXCEL",
	"wjec":                    "WJEC",
	"eduqas":                  "EDUQAS",
	"wjec eduqas":             "EDUQAS",
	"ccea":                    "CCEA",
	"cie":                     "CIE",
	"cambridge":               "CIE",
	"cambridge international": "CIE",
	"sqa":                     "SQA",
}

var qualificationAliases = map[string]string{
	"gcse":               "GCSE",
	"igcse":              "IGCSE",
	"international gcse": "IGCSE",
	"a level":            "ALEVEL",
	"a-level":            "ALEVEL",
	"gce a level":        "ALEVEL",
	"gce":                "ALEVEL",
	"as":                 "AS",
	"as level":           "AS",
	"as-level":           "AS",
	"btec":               "BTEC",
	"btec national":      "BTEC",
	"national 5":         "NAT5",
	"higher":             "HIGHER",
	"advanced higher":    "ADVHIGHER",
}

// ResolvedKey is a natural key with both loose fields canonicalized.
type ResolvedKey struct {
	ExamBoardCode         string
	QualificationTypeCode string
	SubjectCode           string
	SubjectName           string
}

// UnresolvedKeyError reports the offending raw string so a mapping can be
// added; the subject it belongs to is skipped, the run continues.
type UnresolvedKeyError struct {
	Field string
	Raw   string
}

func (e *UnresolvedKeyError) Error() string {
	return fmt.Sprintf("unresolved %s: %q", e.Field, e.Raw)
}

type Resolver struct {
	boards         map[string]string
	qualifications map[string]string
}

func NewResolver() *Resolver {
	return &Resolver{
		boards:         cloneTable(examBoardAliases),
		qualifications: cloneTable(qualificationAliases),
	}
}

type aliasOverrides struct {
	ExamBoards     map[string]string `yaml:"exam_boards"`
	Qualifications map[string]string `yaml:"qualifications"`
}

// LoadOverrides merges additional aliases from a YAML file on top of the
// built-in tables. Keys are lowercased.
func (r *Resolver) LoadOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read alias overrides: %w", err)
	}
	var o aliasOverrides
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return fmt.Errorf("parse alias overrides: %w", err)
	}
	for k, v := range o.ExamBoards {
		r.boards[normalize(k)] = strings.ToUpper(strings.TrimSpace(v))
	}
	for k, v := range o.Qualifications {
		r.qualifications[normalize(k)] = strings.ToUpper(strings.TrimSpace(v))
	}
	return nil
}

// Resolve canonicalizes a subject natural key. Already-canonical codes
// (exact value of an alias target) pass through unchanged.
func (r *Resolver) Resolve(key types.SubjectKey) (ResolvedKey, error) {
	board, err := r.resolveField("exam board", r.boards, key.ExamBoard)
	if err != nil {
		return ResolvedKey{}, err
	}
	qual, err := r.resolveField("qualification type", r.qualifications, key.QualificationType)
	if err != nil {
		return ResolvedKey{}, err
	}
	code := strings.TrimSpace(key.SubjectCode)
	if code == "" {
		return ResolvedKey{}, &UnresolvedKeyError{Field: "subject code", Raw: key.SubjectCode}
	}
	return ResolvedKey{
		ExamBoardCode:         board,
		QualificationTypeCode: qual,
		SubjectCode:           code,
		SubjectName:           strings.TrimSpace(key.SubjectName),
	}, nil
}

func (r *Resolver) resolveField(field string, table map[string]string, raw string) (string, error) {
	norm := normalize(raw)
	if norm == "" {
		return "", &UnresolvedKeyError{Field: field, Raw: raw}
	}
	if code, ok := table[norm]; ok {
		return code, nil
	}
	// Accept canonical codes verbatim so staging rows written by a previous
	// run resolve without a second alias entry.
	upper := strings.ToUpper(norm)
	for _, code := range table {
		if code == upper {
			return code, nil
		}
	}
	return "", &UnresolvedKeyError{Field: field, Raw: raw}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func cloneTable(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
