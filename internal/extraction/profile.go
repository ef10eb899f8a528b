package extraction

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is per-subject extraction configuration. It replaces the forked
// per-subject scripts of the source system: the same extractor set serves
// every exam board, with only the knobs below varying.
type Profile struct {
	Name             string   `yaml:"name"`
	Extractors       []string `yaml:"extractors"` // empty enables all
	TableHeaderWords []string `yaml:"table_header_words"`
	MaxTitleLen      int      `yaml:"max_title_len"`
}

var defaultHeaderWords = []string{
	"content",
	"topic",
	"subject content",
	"additional information",
	"amplification",
	"guidance",
	"learners should be able to demonstrate and apply their knowledge and understanding of",
}

func DefaultProfile() Profile {
	return Profile{
		Name:             "default",
		TableHeaderWords: defaultHeaderWords,
		MaxTitleLen:      512,
	}
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads named profiles from a YAML file, filling unset fields
// from the default profile.
func LoadProfiles(path string) (map[string]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var f profileFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	out := map[string]Profile{}
	for _, p := range f.Profiles {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		if len(p.TableHeaderWords) == 0 {
			p.TableHeaderWords = defaultHeaderWords
		}
		if p.MaxTitleLen <= 0 {
			p.MaxTitleLen = 512
		}
		out[name] = p
	}
	return out, nil
}
