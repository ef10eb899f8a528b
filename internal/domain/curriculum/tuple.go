package curriculum

// TopicTuple is the unit of extraction output: one candidate topic as
// recognized in a source text block, before deduplication and parent
// linking. ParentCode is empty for root candidates. Source carries the
// block locator for diagnostics only.
type TopicTuple struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	Level      int    `json:"level"`
	ParentCode string `json:"parent_code,omitempty"`
	Source     string `json:"source,omitempty"`
}
