package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/extraction"
)

// Manifest describes an ingestion batch: which subjects to extract and
// where their raw text blocks live. Block files are plain text, one block
// per file; inline blocks are mostly used by tests and small fixes.
type Manifest struct {
	Subjects []ManifestSubject `yaml:"subjects"`
}

type ManifestSubject struct {
	Key        types.SubjectKey   `yaml:"key"`
	SourceRef  string             `yaml:"source_ref"`
	Profile    string             `yaml:"profile"`
	BlockFiles []string           `yaml:"block_files"`
	Blocks     []extraction.Block `yaml:"blocks"`
}

// LoadManifest reads a batch manifest and resolves block files relative to
// the manifest's directory.
func LoadManifest(path string) ([]SubjectInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	base := filepath.Dir(path)
	inputs := make([]SubjectInput, 0, len(m.Subjects))
	for _, ms := range m.Subjects {
		in := SubjectInput{
			Key:       ms.Key,
			SourceRef: ms.SourceRef,
			Profile:   ms.Profile,
			Blocks:    append([]extraction.Block{}, ms.Blocks...),
		}
		for _, bf := range ms.BlockFiles {
			p := bf
			if !filepath.IsAbs(p) {
				p = filepath.Join(base, bf)
			}
			text, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("read block file %s: %w", bf, err)
			}
			in.Blocks = append(in.Blocks, extraction.Block{Text: string(text), Source: bf})
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
