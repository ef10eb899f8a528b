package curriculum

import "strings"

// SubjectKey is the natural key handed to the engine by document
// collaborators. Raw exam board / qualification strings are loosely
// formatted; normalization canonicalizes them before sync.
type SubjectKey struct {
	ExamBoard         string `json:"exam_board" yaml:"exam_board"`
	QualificationType string `json:"qualification_type" yaml:"qualification_type"`
	SubjectCode       string `json:"subject_code" yaml:"subject_code"`
	SubjectName       string `json:"subject_name" yaml:"subject_name"`
}

func (k SubjectKey) Empty() bool {
	return strings.TrimSpace(k.ExamBoard) == "" &&
		strings.TrimSpace(k.QualificationType) == "" &&
		strings.TrimSpace(k.SubjectCode) == ""
}
