package messagehandler

import (
	"github.com/scan-io-git/cfamily-bridge/internal/issues"
	"github.com/scan-io-git/cfamily-bridge/internal/protocol"
)

// Handler consumes the messages of one analysis request, in wire order, from
// a single goroutine.
type Handler interface {
	HandleMessage(msg *protocol.Message)
	// Complete delivers what was accepted and ends the request. Messages
	// handled afterwards are ignored.
	Complete()
	AnalysisSucceeded() bool
	IssueCount() int
}

// RulesConfig answers which rules are active. Lookups are case-sensitive.
type RulesConfig interface {
	issues.RulesMetadata
	IsRuleActive(ruleKey string) bool
}

// IssueConverter builds an issue from an accepted message.
type IssueConverter interface {
	Convert(msg *protocol.Message, analyzedFile string, rulesMeta issues.RulesMetadata) (*issues.Issue, error)
}

// IssueConsumer receives accepted issues, one batch per file.
type IssueConsumer interface {
	Accept(filePath string, issues []*issues.Issue)
}
