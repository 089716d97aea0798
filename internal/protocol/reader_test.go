package protocol

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawWriter builds fixtures byte by byte, independently of ResponseWriter.
type rawWriter struct {
	t   *testing.T
	buf bytes.Buffer
}

func (w *rawWriter) utf(s string) *rawWriter {
	require.NoError(w.t, WriteUTF(&w.buf, s))
	return w
}

func (w *rawWriter) int(v int32) *rawWriter {
	require.NoError(w.t, WriteInt(&w.buf, v))
	return w
}

func (w *rawWriter) bool(b bool) *rawWriter {
	require.NoError(w.t, WriteBool(&w.buf, b))
	return w
}

func readAll(t *testing.T, data []byte) ([]Message, error) {
	t.Helper()
	var got []Message
	err := Read(bytes.NewReader(data), func(m Message) {
		got = append(got, m)
	})
	return got, err
}

func TestReadEmptyResponse(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT").utf("END")

	got, err := readAll(t, w.buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadInvalidStartMarker(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("FOO").utf("END")

	_, err := readAll(t, w.buf.Bytes())
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestReadMissingEndMarker(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT")

	_, err := readAll(t, w.buf.Bytes())
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestReadUnknownTag(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT").utf("FOO").utf("END")

	_, err := readAll(t, w.buf.Bytes())
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestReadEmptyStream(t *testing.T) {
	_, err := readAll(t, nil)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestReadMessageWithFlow(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT")
	w.utf("message").
		utf("ruleKey").utf("cFileName").
		int(4).int(3).int(2).int(1).
		int(0).
		utf("Issue message").
		bool(true).
		int(1).utf("partFileName").int(-1).int(1).int(1).int(1).utf("Flow message").
		int(0).
		bool(false).int(0)
	w.utf("END")

	got, err := readAll(t, w.buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 1)

	want := Message{
		RuleKey:       "ruleKey",
		Filename:      "cFileName",
		Line:          4,
		Column:        3,
		EndLine:       2,
		EndColumn:     1,
		Text:          "Issue message",
		PartsMakeFlow: true,
		Parts: []MessagePart{
			{Filename: "partFileName", Line: -1, Column: 1, EndLine: 1, EndColumn: 1, Text: "Flow message"},
		},
		Fixes: []Fix{},
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("decoded message mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMessageWithoutFlowHasEmptySlices(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT")
	w.utf("message").utf("rule").utf("file.cpp").
		int(1).int(1).int(1).int(5).int(0).utf("text").
		bool(false).
		int(0).
		bool(false).int(0)
	w.utf("END")

	got, err := readAll(t, w.buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].PartsMakeFlow)
	assert.NotNil(t, got[0].Parts)
	assert.Empty(t, got[0].Parts)
	assert.NotNil(t, got[0].Fixes)
	assert.Empty(t, got[0].Fixes)
}

func TestReadMessageWithEmptyFilename(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT")
	w.utf("message").utf("ruleKey").utf("").
		int(-1).int(-1).int(-1).int(-1).int(0).utf("Module level").
		bool(false).int(0).bool(false).int(0)
	w.utf("END")

	got, err := readAll(t, w.buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Filename)
	assert.Equal(t, "Module level", got[0].Text)
}

func TestReadMessageWithFixes(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT")
	w.utf("message").utf("S1").utf("a.cpp").
		int(10).int(2).int(10).int(8).int(0).utf("use nullptr").
		bool(false).
		int(0).
		bool(true).int(1).
		utf("Replace with nullptr").int(2).
		int(10).int(11).int(2).int(6).utf("nullptr").
		int(12).int(12).int(1).int(1).utf("")
	w.utf("END")

	got, err := readAll(t, w.buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 1)

	want := []Fix{{
		Message: "Replace with nullptr",
		Edits: []Edit{
			{StartLine: 10, EndLine: 11, StartColumn: 2, EndColumn: 6, Text: "nullptr"},
			{StartLine: 12, EndLine: 12, StartColumn: 1, EndColumn: 1, Text: ""},
		},
	}}
	if diff := cmp.Diff(want, got[0].Fixes); diff != "" {
		t.Errorf("fixes mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSkipsDataFlowsMeasuresAndSymbols(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT")
	w.utf("measures").int(1).
		utf("file.cpp").int(1).int(2).int(3).int(4).int(5).
		int(3)
	w.buf.Write([]byte{1, 2, 3}) // exec lines blob
	w.utf("symbols").int(2).
		int(1).int(1).int(2).int(1).int(5).
		int(0)
	w.utf("message").utf("rule").utf("file.cpp").
		int(1).int(2).int(3).int(4).int(0).utf("text").
		bool(false).
		int(1).utf("flow name").int(2).
		utf("f1").int(1).int(1).int(1).int(1).utf("p1").
		utf("f2").int(2).int(2).int(2).int(2).utf("p2").
		bool(false).int(0)
	w.utf("message").utf("rule2").utf("file.cpp").
		int(5).int(6).int(7).int(8).int(0).utf("second").
		bool(false).int(0).bool(false).int(0)
	w.utf("END")

	got, err := readAll(t, w.buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rule", got[0].RuleKey)
	assert.Empty(t, got[0].Parts)
	assert.Equal(t, "rule2", got[1].RuleKey)
	assert.Equal(t, "second", got[1].Text)
}

func TestReadMultipleFilesKeepCasing(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT")
	for _, f := range []string{"c:\\file.cpp", "C:\\file.cpp", "d:\\other.h"} {
		w.utf("message").utf("rule").utf(f).
			int(1).int(1).int(1).int(1).int(0).utf("text").
			bool(false).int(0).bool(false).int(0)
	}
	w.utf("END")

	got, err := readAll(t, w.buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c:\\file.cpp", got[0].Filename)
	assert.Equal(t, "C:\\file.cpp", got[1].Filename)
	assert.Equal(t, "d:\\other.h", got[2].Filename)
}

func TestReadTruncatedMessageKeepsEarlierMessages(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT")
	w.utf("message").utf("first").utf("a.cpp").
		int(1).int(1).int(1).int(1).int(0).utf("text").
		bool(false).int(0).bool(false).int(0)
	w.utf("message").utf("second").utf("a.cpp").int(1)

	got, err := readAll(t, w.buf.Bytes())
	assert.ErrorIs(t, err, ErrInvalidData)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].RuleKey)
}

func TestReadNegativeCount(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT").utf("symbols").int(-3).utf("END")

	_, err := readAll(t, w.buf.Bytes())
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestReadResponse(t *testing.T) {
	w := &rawWriter{t: t}
	w.utf("OUT").utf("END")

	resp, err := ReadResponse(bytes.NewReader(w.buf.Bytes()))
	require.NoError(t, err)
	assert.NotNil(t, resp.Messages)
	assert.Empty(t, resp.Messages)

	_, err = ReadResponse(bytes.NewReader([]byte{0, 0}))
	assert.ErrorIs(t, err, ErrInvalidData)
}
