package extraction

import (
	"strings"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

// Block is one raw text block handed over by the document collaborators.
// Source is a locator used only for diagnostics, never for ordering.
type Block struct {
	Text   string `yaml:"text"`
	Source string `yaml:"source"`
}

// Extractor recognizes one shape of curriculum text and emits topic tuples
// for it. Extractors are stateless; all ordering state lives in State.
type Extractor interface {
	Name() string
	Extract(line string, st *State) ([]types.TopicTuple, bool)
}

// State threads the currently open ancestor codes and per-parent counters
// through an extraction pass. One State per subject.
type State struct {
	Sections *SectionStack
	Counters *Counters
	Profile  Profile

	// lastOpened is the most recently opened numbered or table-derived
	// code; bullet leaves attach under it.
	lastOpened      string
	lastOpenedLevel int

	source string
}

func NewState(profile Profile) *State {
	return &State{
		Sections: NewSectionStack(),
		Counters: NewCounters(),
		Profile:  profile,
	}
}

func (st *State) openLeafParent(code string, level int) {
	st.lastOpened = code
	st.lastOpenedLevel = level
}

// Runner feeds lines through the configured extractors in precedence order:
// numbered headings beat table rows, table rows beat bullets. A line no
// extractor recognizes is skipped; under-extraction is surfaced later by
// validation, not treated as an error here.
type Runner struct {
	extractors []Extractor
	log        *logger.Logger
}

func NewRunner(profile Profile, baseLog *logger.Logger) *Runner {
	all := []Extractor{
		NumberedHeadingExtractor{},
		PathwayOptionExtractor{},
		TableRowExtractor{},
		DomainSpecialCodeExtractor{},
		BulletListExtractor{},
	}
	enabled := all
	if len(profile.Extractors) > 0 {
		want := map[string]bool{}
		for _, name := range profile.Extractors {
			want[strings.ToLower(strings.TrimSpace(name))] = true
		}
		enabled = enabled[:0:0]
		for _, ex := range all {
			if want[strings.ToLower(ex.Name())] {
				enabled = append(enabled, ex)
			}
		}
	}
	return &Runner{
		extractors: enabled,
		log:        baseLog.With("service", "ExtractionRunner"),
	}
}

// ExtractBlocks runs every block of a subject through the extractors,
// carrying section context across blocks. Blocks arrive in document order.
func (r *Runner) ExtractBlocks(blocks []Block, st *State) []types.TopicTuple {
	out := []types.TopicTuple{}
	for _, b := range blocks {
		st.source = b.Source
		for _, raw := range strings.Split(b.Text, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			for _, ex := range r.extractors {
				tuples, ok := ex.Extract(line, st)
				if !ok {
					continue
				}
				out = append(out, tuples...)
				break
			}
		}
	}
	r.log.Debug("Extraction pass finished", "blocks", len(blocks), "tuples", len(out))
	return out
}
