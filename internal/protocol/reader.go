package protocol

import (
	"bufio"
	"io"
)

// Markers and tags of the response grammar:
//
//	"OUT" { "message" record | "measures" block | "symbols" block } "END"
const (
	markerResponseStart = "OUT"
	markerRequestStart  = "IN"
	markerEnd           = "END"

	tagMessage  = "message"
	tagMeasures = "measures"
	tagSymbols  = "symbols"
)

// Read decodes a response from r and calls onMessage for every message in the
// order it appears on the wire. Nothing is buffered beyond the message being
// decoded. Any deviation from the grammar aborts decoding with an error that
// wraps ErrInvalidData; messages delivered before that point stay delivered.
func Read(r io.Reader, onMessage func(Message)) error {
	d := newDecoder(r)

	if start := d.str("start marker"); d.err == nil && start != markerResponseStart {
		return invalidData("expected %q marker, got %q", markerResponseStart, start)
	}

	for d.err == nil {
		tag := d.str("tag")
		if d.err != nil {
			break
		}
		switch tag {
		case tagMessage:
			msg := d.message()
			if d.err == nil && onMessage != nil {
				onMessage(msg)
			}
		case tagMeasures:
			d.skipMeasures()
		case tagSymbols:
			d.skipSymbols()
		case markerEnd:
			return nil
		default:
			return invalidData("unexpected tag %q", tag)
		}
	}
	return d.err
}

// ReadResponse decodes a whole response into memory. Prefer Read for large
// outputs.
func ReadResponse(r io.Reader) (*Response, error) {
	resp := &Response{Messages: []Message{}}
	if err := Read(r, func(m Message) {
		resp.Messages = append(resp.Messages, m)
	}); err != nil {
		return nil, err
	}
	return resp, nil
}

// decoder keeps the first error and turns every later read into a no-op.
type decoder struct {
	r   *bufio.Reader
	err error
}

func newDecoder(r io.Reader) *decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &decoder{r: br}
}

func (d *decoder) fail(what string, err error) {
	if d.err == nil {
		d.err = invalidData("reading %s: %v", what, err)
	}
}

func (d *decoder) str(what string) string {
	if d.err != nil {
		return ""
	}
	s, err := ReadUTF(d.r)
	if err != nil {
		d.fail(what, err)
	}
	return s
}

func (d *decoder) int(what string) int32 {
	if d.err != nil {
		return 0
	}
	v, err := ReadInt(d.r)
	if err != nil {
		d.fail(what, err)
	}
	return v
}

func (d *decoder) bool(what string) bool {
	if d.err != nil {
		return false
	}
	v, err := ReadBool(d.r)
	if err != nil {
		d.fail(what, err)
	}
	return v
}

func (d *decoder) blob(what string) []byte {
	if d.err != nil {
		return nil
	}
	size, err := ReadInt(d.r)
	if err != nil {
		d.fail(what, err)
		return nil
	}
	s, err := readBlob(d.r, size)
	if err != nil {
		d.fail(what, err)
		return nil
	}
	return []byte(s)
}

// count reads a non-negative element count.
func (d *decoder) count(what string) int {
	n := d.int(what)
	if d.err == nil && n < 0 {
		d.err = invalidData("negative %s: %d", what, n)
		return 0
	}
	return int(n)
}

func (d *decoder) message() Message {
	msg := Message{
		RuleKey:   d.str("rule key"),
		Filename:  d.str("filename"),
		Line:      d.int("line"),
		Column:    d.int("column"),
		EndLine:   d.int("end line"),
		EndColumn: d.int("end column"),
		Parts:     []MessagePart{},
		Fixes:     []Fix{},
	}
	_ = d.int("reserved")
	msg.Text = d.str("text")

	msg.PartsMakeFlow = d.bool("flow flag")
	if msg.PartsMakeFlow {
		msg.Parts = d.parts("flow part count")
	}

	d.skipDataFlows()

	_ = d.bool("fixes flag")
	n := d.count("fix count")
	for i := 0; i < n && d.err == nil; i++ {
		msg.Fixes = append(msg.Fixes, d.fix())
	}
	return msg
}

func (d *decoder) parts(what string) []MessagePart {
	parts := []MessagePart{}
	n := d.count(what)
	for i := 0; i < n && d.err == nil; i++ {
		parts = append(parts, MessagePart{
			Filename:  d.str("part filename"),
			Line:      d.int("part line"),
			Column:    d.int("part column"),
			EndLine:   d.int("part end line"),
			EndColumn: d.int("part end column"),
			Text:      d.str("part text"),
		})
	}
	return parts
}

// skipDataFlows consumes the legacy data-flow section. No caller uses it.
func (d *decoder) skipDataFlows() {
	n := d.count("data flow count")
	for i := 0; i < n && d.err == nil; i++ {
		_ = d.str("data flow name")
		_ = d.parts("data flow part count")
	}
}

func (d *decoder) fix() Fix {
	fix := Fix{
		Message: d.str("fix message"),
		Edits:   []Edit{},
	}
	n := d.count("edit count")
	for i := 0; i < n && d.err == nil; i++ {
		fix.Edits = append(fix.Edits, Edit{
			StartLine:   d.int("edit start line"),
			EndLine:     d.int("edit end line"),
			StartColumn: d.int("edit start column"),
			EndColumn:   d.int("edit end column"),
			Text:        d.str("edit text"),
		})
	}
	return fix
}

func (d *decoder) skipMeasures() {
	n := d.count("measure count")
	for i := 0; i < n && d.err == nil; i++ {
		_ = d.str("measure filename")
		_ = d.int("classes")
		_ = d.int("functions")
		_ = d.int("statements")
		_ = d.int("complexity")
		_ = d.int("cognitive complexity")
		_ = d.blob("exec lines")
	}
}

func (d *decoder) skipSymbols() {
	n := d.count("symbol count")
	for i := 0; i < n && d.err == nil; i++ {
		refs := d.count("symbol reference count")
		for j := 0; j < refs && d.err == nil; j++ {
			_ = d.int("reference line")
			_ = d.int("reference column")
			_ = d.int("reference end line")
			_ = d.int("reference end column")
		}
	}
}
