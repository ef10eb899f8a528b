package extraction

// SectionStack tracks the currently open ancestor section codes. Opening a
// code at level N closes any open sections at level N or deeper.
type SectionStack struct {
	open []Section
}

type Section struct {
	Code  string
	Level int
}

func NewSectionStack() *SectionStack {
	return &SectionStack{}
}

func (s *SectionStack) Open(code string, level int) {
	for len(s.open) > 0 && s.open[len(s.open)-1].Level >= level {
		s.open = s.open[:len(s.open)-1]
	}
	s.open = append(s.open, Section{Code: code, Level: level})
}

// Current returns the innermost open section.
func (s *SectionStack) Current() (Section, bool) {
	if len(s.open) == 0 {
		return Section{}, false
	}
	return s.open[len(s.open)-1], true
}

// Lookup finds an open section by code, walking outward.
func (s *SectionStack) Lookup(code string) (Section, bool) {
	for i := len(s.open) - 1; i >= 0; i-- {
		if s.open[i].Code == code {
			return s.open[i], true
		}
	}
	return Section{}, false
}
