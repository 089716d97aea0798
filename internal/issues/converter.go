package issues

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/scan-io-git/cfamily-bridge/internal/protocol"
	"github.com/scan-io-git/cfamily-bridge/internal/rules"
)

// RulesMetadata is the part of a rule configuration the converter needs.
type RulesMetadata interface {
	LanguageKey() string
	Metadata(ruleKey string) (rules.Metadata, bool)
}

// Converter turns analyzer messages into issues.
type Converter struct {
	newID func() string
}

// NewConverter returns a Converter that gives every issue a random UUID.
func NewConverter() *Converter {
	return &Converter{newID: uuid.NewString}
}

// Convert builds the issue for msg. Messages without a filename or without a
// line belong to analyzedFile as a whole.
func (c *Converter) Convert(msg *protocol.Message, analyzedFile string, rulesMeta RulesMetadata) (*Issue, error) {
	if msg == nil {
		return nil, fmt.Errorf("message is nil")
	}
	md, ok := rulesMeta.Metadata(msg.RuleKey)
	if !ok {
		return nil, fmt.Errorf("no metadata for rule %q", msg.RuleKey)
	}

	// Accepted messages are about analyzedFile; its spelling wins over the
	// one the analyzer used.
	filePath := analyzedFile
	if filePath == "" {
		filePath = msg.Filename
	}

	issue := &Issue{
		ID:       c.newID(),
		RuleKey:  rulesMeta.LanguageKey() + ":" + msg.RuleKey,
		Severity: md.Severity,
		Type:     md.Type,
		Message:  msg.Text,
		FilePath: filePath,
		Range:    toRange(msg.Line, msg.Column, msg.EndLine, msg.EndColumn),
		Flows:    toFlows(msg, analyzedFile),
		Fixes:    toFixes(msg.Fixes),
	}
	return issue, nil
}

func toRange(line, column, endLine, endColumn int32) *TextRange {
	if line <= 0 {
		return nil
	}
	r := &TextRange{StartLine: int(line), EndLine: int(line)}
	if column > 0 {
		r.StartColumn = int(column)
	}
	if endLine >= line {
		r.EndLine = int(endLine)
	}
	if endColumn > 0 {
		r.EndColumn = int(endColumn)
	}
	return r
}

// toFlows keeps the parts as one ordered flow when they make a flow, and
// otherwise reports each as an independent secondary location.
func toFlows(msg *protocol.Message, analyzedFile string) []Flow {
	flows := []Flow{}
	if len(msg.Parts) == 0 {
		return flows
	}

	locations := make([]Location, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		path := p.Filename
		if path == "" {
			path = analyzedFile
		}
		locations = append(locations, Location{
			FilePath: path,
			Range:    toRange(p.Line, p.Column, p.EndLine, p.EndColumn),
			Message:  p.Text,
		})
	}

	if msg.PartsMakeFlow {
		return append(flows, Flow{Locations: locations})
	}
	for _, l := range locations {
		flows = append(flows, Flow{Locations: []Location{l}})
	}
	return flows
}

func toFixes(fixes []protocol.Fix) []QuickFix {
	out := make([]QuickFix, 0, len(fixes))
	for _, f := range fixes {
		qf := QuickFix{Message: f.Message, Edits: make([]Edit, 0, len(f.Edits))}
		for _, e := range f.Edits {
			qf.Edits = append(qf.Edits, Edit{
				Range: TextRange{
					StartLine:   int(e.StartLine),
					StartColumn: int(e.StartColumn),
					EndLine:     int(e.EndLine),
					EndColumn:   int(e.EndColumn),
				},
				NewText: e.Text,
			})
		}
		out = append(out, qf)
	}
	return out
}
