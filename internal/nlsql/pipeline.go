package nlsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/official-eswaran/DataWhisper/internal/dataset"
	"github.com/official-eswaran/DataWhisper/internal/domain"
	"github.com/official-eswaran/DataWhisper/internal/llm"
	"github.com/official-eswaran/DataWhisper/internal/session"
)

// Pipeline runs one question through triage, generation, validation,
// execution with a single self-healing retry, and shaping, emitting
// ordered stage events along the way.
type Pipeline struct {
	gateway    llm.Client
	classifier *Classifier
	responder  *Responder
	history    session.HistoryStore
	logger     *slog.Logger
}

// New creates a pipeline.
func New(gateway llm.Client, history session.HistoryStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		gateway:    gateway,
		classifier: NewClassifier(gateway, logger),
		responder:  NewResponder(gateway, logger),
		history:    history,
		logger:     logger,
	}
}

// Run processes one turn. The returned channel delivers stage events in
// order and is closed after exactly one terminal event (done or error).
// Cancelling ctx aborts outstanding work.
func (p *Pipeline) Run(ctx context.Context, sessionID, question string, eng dataset.Engine) <-chan domain.StageEvent {
	events := make(chan domain.StageEvent, 8)
	go func() {
		defer close(events)
		em := &emitter{ctx: ctx, ch: events}
		p.run(ctx, em, sessionID, question, eng)
	}()
	return events
}

// emitter delivers stage events to the run's single consumer, dropping
// further sends once the consumer's context is gone.
type emitter struct {
	ctx context.Context
	ch  chan<- domain.StageEvent
}

func (e *emitter) stage(stage domain.Stage, message string) {
	select {
	case e.ch <- domain.StageEvent{Stage: stage, Message: message}:
	case <-e.ctx.Done():
	}
}

func (e *emitter) done(outcome *domain.Outcome) {
	select {
	case e.ch <- domain.StageEvent{Stage: domain.StageDone, Result: outcome}:
	case <-e.ctx.Done():
	}
}

func (e *emitter) fail(outcome *domain.Outcome) {
	select {
	case e.ch <- domain.StageEvent{Stage: domain.StageError, Message: outcome.Message, Result: outcome}:
	case <-e.ctx.Done():
	}
}

func (p *Pipeline) run(ctx context.Context, em *emitter, sessionID, question string, eng dataset.Engine) {
	em.stage(domain.StageClassifying, "Understanding your question")
	intent := p.classifier.Classify(ctx, question)
	p.logger.Info("question classified", "session_id", sessionID, "intent", intent.String())

	// Chitchat and off-topic turns skip straight to done.
	switch intent {
	case domain.IntentChitchat:
		reply := p.responder.Chitchat(ctx, question)
		p.recordTurn(sessionID, question, reply)
		em.done(domain.ChatOutcome(reply))
		return
	case domain.IntentOffTopic:
		reply := p.responder.OffTopic()
		p.recordTurn(sessionID, question, reply)
		em.done(domain.ChatOutcome(reply))
		return
	case domain.IntentDataQuery:
	}

	em.stage(domain.StageAnalyzing, "Reading your dataset schema")
	schema, err := DescribeSchema(ctx, eng)
	if err != nil {
		em.fail(domain.ErrorOutcome(fmt.Sprintf("Could not read the dataset schema: %v", err), ""))
		return
	}

	em.stage(domain.StageGenerating, "Generating SQL for your question")
	prompt := BuildPrompt(question, schema, p.history.Get(sessionID))
	raw, err := p.gateway.Generate(ctx, prompt)
	if err != nil {
		em.fail(domain.ErrorOutcome(gatewayMessage(err), ""))
		return
	}

	cand := ExtractAndValidate(ctx, raw, eng)
	if !cand.Validated {
		// A generation failure is terminal; only execution failures heal.
		em.fail(domain.ErrorOutcome("Could not generate a valid SQL query. Please rephrase.", raw))
		return
	}

	em.stage(domain.StageExecuting, "Running the query")
	result, execErr := eng.Execute(ctx, cand.SQL)
	if execErr != nil {
		cand, result, execErr = p.heal(ctx, em, eng, cand, schema, execErr)
		if execErr != nil {
			em.fail(domain.ErrorOutcome(execErr.Error(), cand.Raw))
			return
		}
	}

	shape, summary := Shape(result)
	p.recordTurn(sessionID, question, cand.SQL)

	em.done(&domain.Outcome{
		Kind:     domain.OutcomeResult,
		Summary:  summary,
		Data:     result.Rows,
		Columns:  result.Columns,
		SQL:      cand.SQL,
		RowCount: result.RowCount(),
		Shape:    shape,
	})
}

// heal performs the single self-healing retry: one repair prompt embedding
// the failed query and its error, one generate call, one re-execution. A
// second failure of any kind is terminal for the turn.
func (p *Pipeline) heal(ctx context.Context, em *emitter, eng dataset.Engine, failed CandidateQuery, schema string, execErr error) (CandidateQuery, *domain.ResultSet, error) {
	em.stage(domain.StageHealing, "Query failed, attempting automatic repair")
	p.logger.Info("attempting self-healing retry", "error", execErr)

	raw, err := p.gateway.Generate(ctx, BuildRepairPrompt(failed.SQL, execErr.Error(), schema))
	if err != nil {
		return failed, nil, fmt.Errorf("%s (repair failed: %s)", execErr.Error(), gatewayMessage(err))
	}

	cand := ExtractAndValidate(ctx, raw, eng)
	if !cand.Validated {
		// Surface the original engine error; the repair attempt's raw
		// text rides along as the offending text.
		return cand, nil, execErr
	}

	result, retryErr := eng.Execute(ctx, cand.SQL)
	if retryErr != nil {
		return cand, nil, retryErr
	}
	return cand, result, nil
}

func (p *Pipeline) recordTurn(sessionID, question, answer string) {
	p.history.Append(sessionID,
		domain.ConversationTurn{Role: domain.RoleUser, Content: question},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: answer},
	)
}

// gatewayMessage renders gateway failures as human-readable terminal
// messages, keeping the unreachable/timeout distinction visible.
func gatewayMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return fmt.Sprintf("The model gateway timed out: %v", err)
	case errors.Is(err, llm.ErrUnavailable):
		return fmt.Sprintf("The model gateway is unreachable: %v", err)
	default:
		return fmt.Sprintf("The model gateway failed: %v", err)
	}
}
