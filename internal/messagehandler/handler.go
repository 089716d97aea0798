package messagehandler

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/cfamily-bridge/internal/issues"
	"github.com/scan-io-git/cfamily-bridge/internal/protocol"
)

// Dispatcher filters the messages of one request, converts the accepted ones
// and hands them to the consumer in a single batch on Complete.
type Dispatcher struct {
	analyzedFile string
	rules        RulesConfig
	converter    IssueConverter
	consumer     IssueConsumer
	logger       hclog.Logger

	pending    []*issues.Issue
	issueCount int
	succeeded  bool
	completed  bool
}

// New creates a Dispatcher for the analysis of analyzedFile.
func New(analyzedFile string, rules RulesConfig, converter IssueConverter, consumer IssueConsumer, logger hclog.Logger) *Dispatcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Dispatcher{
		analyzedFile: analyzedFile,
		rules:        rules,
		converter:    converter,
		consumer:     consumer,
		logger:       logger,
		succeeded:    true,
	}
}

// HandleMessage decides whether msg is a reportable issue.
func (d *Dispatcher) HandleMessage(msg *protocol.Message) {
	if msg == nil || d.completed {
		return
	}

	if isInternal(msg.RuleKey) {
		d.handleInternal(msg)
		return
	}

	if !d.rules.IsRuleActive(msg.RuleKey) {
		return
	}
	if msg.Filename != "" && !IsSamePath(msg.Filename, d.analyzedFile) {
		return
	}

	issue, err := d.converter.Convert(msg, d.analyzedFile, d.rules)
	if err != nil {
		d.logger.Warn("failed to convert analyzer message", "rule", msg.RuleKey, "file", d.analyzedFile, "error", err)
		return
	}
	d.pending = append(d.pending, issue)
	d.issueCount++
}

func (d *Dispatcher) handleInternal(msg *protocol.Message) {
	template, ok := internalSignals[msg.RuleKey]
	if !ok {
		return
	}
	d.logger.Error(fmt.Sprintf(template, msg.Text))
	d.succeeded = false
}

// Complete sends the accepted issues, if any, as one batch.
func (d *Dispatcher) Complete() {
	if d.completed {
		return
	}
	d.completed = true
	if len(d.pending) > 0 {
		d.consumer.Accept(d.analyzedFile, d.pending)
		d.pending = nil
	}
}

// AnalysisSucceeded is false once the analyzer signalled a failure.
func (d *Dispatcher) AnalysisSucceeded() bool {
	return d.succeeded
}

// IssueCount returns the number of accepted issues.
func (d *Dispatcher) IssueCount() int {
	return d.issueCount
}

type noOp struct{}

// NoOp ignores every message and always reports success. Used when the
// analyzer runs for its side effects only.
var NoOp Handler = noOp{}

func (noOp) HandleMessage(*protocol.Message) {}
func (noOp) Complete()                       {}
func (noOp) AnalysisSucceeded() bool         { return true }
func (noOp) IssueCount() int                 { return 0 }
