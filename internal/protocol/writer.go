package protocol

import (
	"bufio"
	"io"
	"sort"
)

// Request field tags.
const (
	fieldFile       = "File"
	fieldFlags      = "Flags"
	fieldPchFile    = "PchFile"
	fieldOptions    = "Options"
	fieldProperties = "Properties"
)

// encoder keeps the first write error and skips every later write.
type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) str(s string) {
	if e.err == nil {
		e.err = WriteUTF(e.w, s)
	}
}

func (e *encoder) int(v int32) {
	if e.err == nil {
		e.err = WriteInt(e.w, v)
	}
}

func (e *encoder) bool(b bool) {
	if e.err == nil {
		e.err = WriteBool(e.w, b)
	}
}

func (e *encoder) blob(b []byte) {
	e.int(int32(len(b)))
	if e.err == nil && len(b) > 0 {
		_, e.err = e.w.Write(b)
	}
}

// WriteRequest encodes req as the analyzer expects it on standard input.
// Properties are written sorted by key so the encoding is deterministic.
func WriteRequest(w io.Writer, req Request) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}

	e.str(markerRequestStart)
	e.str(fieldFile)
	e.str(req.File)
	e.str(fieldFlags)
	e.int(req.Flags)
	if req.PchFile != "" {
		e.str(fieldPchFile)
		e.str(req.PchFile)
	}
	e.str(fieldOptions)
	e.int(int32(len(req.Options)))
	for _, o := range req.Options {
		e.str(o)
	}
	e.str(fieldProperties)
	keys := make([]string, 0, len(req.Properties))
	for k := range req.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.int(int32(len(keys)))
	for _, k := range keys {
		e.str(k)
		e.str(req.Properties[k])
	}
	e.str(markerEnd)

	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

// ReadRequest decodes a request written by WriteRequest.
func ReadRequest(r io.Reader) (*Request, error) {
	d := newDecoder(r)
	if start := d.str("start marker"); d.err == nil && start != markerRequestStart {
		return nil, invalidData("expected %q marker, got %q", markerRequestStart, start)
	}

	req := &Request{Options: []string{}, Properties: map[string]string{}}
	for d.err == nil {
		field := d.str("field")
		switch {
		case d.err != nil:
		case field == fieldFile:
			req.File = d.str("file")
		case field == fieldFlags:
			req.Flags = d.int("flags")
		case field == fieldPchFile:
			req.PchFile = d.str("pch file")
		case field == fieldOptions:
			n := d.count("option count")
			for i := 0; i < n && d.err == nil; i++ {
				req.Options = append(req.Options, d.str("option"))
			}
		case field == fieldProperties:
			n := d.count("property count")
			for i := 0; i < n && d.err == nil; i++ {
				k := d.str("property key")
				req.Properties[k] = d.str("property value")
			}
		case field == markerEnd:
			return req, nil
		default:
			return nil, invalidData("unexpected request field %q", field)
		}
	}
	return nil, d.err
}

// ResponseWriter encodes a response. It is what the analyzer does on its
// side of the pipe; tests and stub analyzers use it to produce fixtures.
type ResponseWriter struct {
	bw *bufio.Writer
	e  *encoder
}

// NewResponseWriter writes the start marker and returns the writer.
func NewResponseWriter(w io.Writer) *ResponseWriter {
	bw := bufio.NewWriter(w)
	rw := &ResponseWriter{bw: bw, e: &encoder{w: bw}}
	rw.e.str(markerResponseStart)
	return rw
}

// WriteMessage appends a "message" record. Parts are only written when
// PartsMakeFlow is set.
func (rw *ResponseWriter) WriteMessage(m Message) error {
	return rw.writeMessage(m, nil)
}

// WriteMessageWithDataFlows appends a message that also carries legacy data
// flows, keyed by flow name.
func (rw *ResponseWriter) WriteMessageWithDataFlows(m Message, flows map[string][]MessagePart) error {
	return rw.writeMessage(m, flows)
}

func (rw *ResponseWriter) writeMessage(m Message, flows map[string][]MessagePart) error {
	e := rw.e
	e.str(tagMessage)
	e.str(m.RuleKey)
	e.str(m.Filename)
	e.int(m.Line)
	e.int(m.Column)
	e.int(m.EndLine)
	e.int(m.EndColumn)
	e.int(0)
	e.str(m.Text)
	e.bool(m.PartsMakeFlow)
	if m.PartsMakeFlow {
		rw.writeParts(m.Parts)
	}

	names := make([]string, 0, len(flows))
	for name := range flows {
		names = append(names, name)
	}
	sort.Strings(names)
	e.int(int32(len(names)))
	for _, name := range names {
		e.str(name)
		rw.writeParts(flows[name])
	}

	e.bool(len(m.Fixes) > 0)
	e.int(int32(len(m.Fixes)))
	for _, f := range m.Fixes {
		e.str(f.Message)
		e.int(int32(len(f.Edits)))
		for _, ed := range f.Edits {
			e.int(ed.StartLine)
			e.int(ed.EndLine)
			e.int(ed.StartColumn)
			e.int(ed.EndColumn)
			e.str(ed.Text)
		}
	}
	return e.err
}

func (rw *ResponseWriter) writeParts(parts []MessagePart) {
	e := rw.e
	e.int(int32(len(parts)))
	for _, p := range parts {
		e.str(p.Filename)
		e.int(p.Line)
		e.int(p.Column)
		e.int(p.EndLine)
		e.int(p.EndColumn)
		e.str(p.Text)
	}
}

// WriteMeasures appends a "measures" block.
func (rw *ResponseWriter) WriteMeasures(measures []Measure) error {
	e := rw.e
	e.str(tagMeasures)
	e.int(int32(len(measures)))
	for _, m := range measures {
		e.str(m.Filename)
		e.int(m.Classes)
		e.int(m.Functions)
		e.int(m.Statements)
		e.int(m.Complexity)
		e.int(m.CognitiveComplexity)
		e.blob(m.ExecLines)
	}
	return e.err
}

// WriteSymbols appends a "symbols" block, one reference list per symbol.
func (rw *ResponseWriter) WriteSymbols(symbols [][]SymbolReference) error {
	e := rw.e
	e.str(tagSymbols)
	e.int(int32(len(symbols)))
	for _, refs := range symbols {
		e.int(int32(len(refs)))
		for _, ref := range refs {
			e.int(ref.Line)
			e.int(ref.Column)
			e.int(ref.EndLine)
			e.int(ref.EndColumn)
		}
	}
	return e.err
}

// Close writes the end marker and flushes.
func (rw *ResponseWriter) Close() error {
	rw.e.str(markerEnd)
	if rw.e.err != nil {
		return rw.e.err
	}
	return rw.bw.Flush()
}

// Flush pushes buffered records to the underlying writer without ending the
// response.
func (rw *ResponseWriter) Flush() error {
	if rw.e.err != nil {
		return rw.e.err
	}
	return rw.bw.Flush()
}
