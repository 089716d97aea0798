package protocol

// Message is a single finding reported by the analyzer.
//
// Line, Column, EndLine and EndColumn are 1-based; -1 means "not applicable".
// An empty Filename is a module-level finding, not a decode failure.
type Message struct {
	RuleKey       string
	Filename      string
	Line          int32
	Column        int32
	EndLine       int32
	EndColumn     int32
	Text          string
	PartsMakeFlow bool
	Parts         []MessagePart
	Fixes         []Fix
}

// MessagePart is a secondary location of a Message.
type MessagePart struct {
	Filename  string
	Line      int32
	Column    int32
	EndLine   int32
	EndColumn int32
	Text      string
}

// Fix is a quick fix proposed for a Message.
type Fix struct {
	Message string
	Edits   []Edit
}

// Edit replaces the given range with Text.
type Edit struct {
	StartLine   int32
	EndLine     int32
	StartColumn int32
	EndColumn   int32
	Text        string
}

// Response is the fully decoded output of one analyzer invocation.
type Response struct {
	Messages []Message
}

// Request flags understood by the analyzer.
const (
	FlagSyntaxOnly       int32 = 1 << 0
	FlagCreateReproducer int32 = 1 << 1
)

// Request is written to the analyzer's standard input.
type Request struct {
	File       string
	Flags      int32
	PchFile    string
	Options    []string
	Properties map[string]string
}

// IsSyntaxOnly reports whether the request asks for a syntax-only pass.
func (r Request) IsSyntaxOnly() bool {
	return r.Flags&FlagSyntaxOnly != 0
}

// Measure holds per-file metrics from a "measures" block.
type Measure struct {
	Filename            string
	Classes             int32
	Functions           int32
	Statements          int32
	Complexity          int32
	CognitiveComplexity int32
	ExecLines           []byte
}

// SymbolReference is one occurrence of a symbol in a "symbols" block.
type SymbolReference struct {
	Line      int32
	Column    int32
	EndLine   int32
	EndColumn int32
}
