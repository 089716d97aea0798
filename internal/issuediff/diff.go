// Package issuediff compares the issues of two analysis runs over the same
// files, so watch mode can tell which findings appeared and which were fixed.
package issuediff

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/scan-io-git/cfamily-bridge/internal/issues"
)

// key is the part of an issue that survives edits elsewhere in the file.
type key struct {
	RuleKey     string
	FilePath    string
	StartLine   int
	EndLine     int
	MessageHash string
}

func keyOf(issue *issues.Issue) key {
	k := key{
		RuleKey:     issue.RuleKey,
		FilePath:    issue.FilePath,
		MessageHash: hashMessage(issue.Message),
	}
	if issue.Range != nil {
		k.StartLine = issue.Range.StartLine
		k.EndLine = issue.Range.EndLine
	}
	return k
}

func hashMessage(message string) string {
	if message == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

// Result is the outcome of Compare.
type Result struct {
	// New holds current issues with no counterpart in the previous run.
	New []*issues.Issue
	// Resolved holds previous issues with no counterpart in the current run.
	Resolved []*issues.Issue
	// Unchanged counts current issues matched to a previous one.
	Unchanged int
}

// Changed reports whether any issue appeared or disappeared.
func (r Result) Changed() bool {
	return len(r.New) > 0 || len(r.Resolved) > 0
}

// Compare matches current issues against previous ones in four stages, each
// looser than the one before. An issue matched in a stage takes no part in
// later ones. Rule key and file must always be equal.
//
//  1. lines and message
//  2. message only, so code moved by an edit above still matches
//  3. lines only, so a reworded message still matches
//  4. start line only
func Compare(previous, current []*issues.Issue) Result {
	prevKeys := make([]key, len(previous))
	for i, p := range previous {
		prevKeys[i] = keyOf(p)
	}
	curKeys := make([]key, len(current))
	for i, c := range current {
		curKeys[i] = keyOf(c)
	}

	matchedPrev := make([]bool, len(previous))
	matchedCur := make([]bool, len(current))

	for stage := 1; stage <= 4; stage++ {
		for pi, pk := range prevKeys {
			if matchedPrev[pi] {
				continue
			}
			for ci, ck := range curKeys {
				if matchedCur[ci] {
					continue
				}
				if matchStage(pk, ck, stage) {
					matchedPrev[pi] = true
					matchedCur[ci] = true
					break
				}
			}
		}
	}

	var result Result
	for ci, c := range current {
		if matchedCur[ci] {
			result.Unchanged++
			continue
		}
		result.New = append(result.New, c)
	}
	for pi, p := range previous {
		if !matchedPrev[pi] {
			result.Resolved = append(result.Resolved, p)
		}
	}
	return result
}

func matchStage(a, b key, stage int) bool {
	if a.RuleKey == "" || a.RuleKey != b.RuleKey || a.FilePath != b.FilePath {
		return false
	}

	switch stage {
	case 1:
		return a.StartLine == b.StartLine && a.EndLine == b.EndLine && a.MessageHash == b.MessageHash
	case 2:
		return a.MessageHash != "" && a.MessageHash == b.MessageHash
	case 3:
		return a.StartLine == b.StartLine && a.EndLine == b.EndLine
	case 4:
		return a.StartLine == b.StartLine
	default:
		return false
	}
}
