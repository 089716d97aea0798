package issues

// Issue is a finding accepted for the analysed file.
type Issue struct {
	ID       string     `json:"id"`
	RuleKey  string     `json:"rule_key"`
	Severity string     `json:"severity"`
	Type     string     `json:"type"`
	Message  string     `json:"message"`
	FilePath string     `json:"file_path"`
	Range    *TextRange `json:"range,omitempty"` // nil for file-level issues
	Flows    []Flow     `json:"flows"`
	Fixes    []QuickFix `json:"fixes"`
}

// TextRange positions are 1-based. A zero column or end line means the
// analyzer did not report it.
type TextRange struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column,omitempty"`
	EndLine     int `json:"end_line,omitempty"`
	EndColumn   int `json:"end_column,omitempty"`
}

// Location is a secondary location of an issue.
type Location struct {
	FilePath string     `json:"file_path"`
	Range    *TextRange `json:"range,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// Flow is an ordered list of locations.
type Flow struct {
	Locations []Location `json:"locations"`
}

// QuickFix is a set of edits that resolves the issue.
type QuickFix struct {
	Message string `json:"message"`
	Edits   []Edit `json:"edits"`
}

// Edit replaces Range with NewText.
type Edit struct {
	Range   TextRange `json:"range"`
	NewText string    `json:"new_text"`
}

// IsFileLevel reports whether the issue has no position in the file.
func (i *Issue) IsFileLevel() bool {
	return i.Range == nil
}
