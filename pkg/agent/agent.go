package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neuronos/neuronos/pkg/contextacct"
	"github.com/neuronos/neuronos/pkg/engine"
	"github.com/neuronos/neuronos/pkg/memory"
	"github.com/neuronos/neuronos/pkg/neuronerr"
	"github.com/neuronos/neuronos/pkg/tools"
)

// ObservationCap bounds a tool observation's length before it's
// appended to the conversation, per spec.md §4.7 step 5 ("truncated to
// configurable cap, e.g. 4 KiB").
const ObservationCap = 4 * 1024

// DefaultMaxSteps bounds the agent loop, per spec.md §4.7 step 7.
const DefaultMaxSteps = 25

var (
	tracer = otel.Tracer("neuronos/agent")
	meter  = otel.Meter("neuronos/agent")

	stepCounter, _ = meter.Int64Counter("neuronos.agent.steps",
		metric.WithDescription("agent controller steps, by action"))
	toolDispatchCounter, _ = meter.Int64Counter("neuronos.agent.tool_dispatches",
		metric.WithDescription("tool dispatches, by tool name and outcome"))
)

// StepCallback is invoked once per completed step, per spec.md §4.7
// step 6: "(step, thought, action_json, observation)".
type StepCallback func(step int, thought string, actionJSON string, observation string)

// Config configures an Agent.
type Config struct {
	MaxSteps         int
	MaxTokensPerStep int
	Temperature      float32

	// Capabilities granted to this agent for tool dispatch.
	Capabilities tools.Capability

	OnStep StepCallback
}

// Result is the outcome of Run.
type Result struct {
	Status Status
	Answer string
	Steps  int
}

// Agent is one ReAct controller instance: one engine handle, one tool
// registry, one memory store, one conversation.
type Agent struct {
	cfg      Config
	eng      engine.Engine
	registry *tools.Registry
	mem      *memory.Store
	acct     *contextacct.Accountant

	cancelled       bool
	pendingRaw      string
	pendingDecision Decision
}

// New constructs an Agent. acct should already be seeded with the
// task's initial user turn (and an optional system turn).
func New(cfg Config, eng engine.Engine, registry *tools.Registry, mem *memory.Store, acct *contextacct.Accountant) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.MaxTokensPerStep <= 0 {
		cfg.MaxTokensPerStep = 512
	}
	return &Agent{cfg: cfg, eng: eng, registry: registry, mem: mem, acct: acct}
}

// Cancel requests cancellation, honored at the next state transition
// per spec.md §5 ("a cancelled agent returns with status CANCELLED
// after completing the current tool call").
func (a *Agent) Cancel() {
	a.cancelled = true
}

// Run drives the state machine to completion: FINAL, FAILED, or
// CANCELLED.
func (a *Agent) Run(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "agent.Run")
	defer span.End()

	state := StateInit
	step := 0
	malformedStreak := 0
	var lastAssistantText string

	for {
		if a.cancelled {
			return Result{Status: StatusCancelled, Answer: lastAssistantText, Steps: step}, nil
		}

		switch state {
		case StateInit:
			state = StatePrompting

		case StatePrompting:
			if err := a.acct.Compact(ctx); err != nil {
				return a.fail(span, step, err)
			}
			state = StateSampling

		case StateSampling:
			prompt, err := composePrompt(a.registry, a.mem, a.acct.Turns())
			if err != nil {
				return a.fail(span, step, err)
			}

			stepCtx, stepSpan := tracer.Start(ctx, "agent.step", trace.WithAttributes(attribute.Int("step", step)))
			result, err := a.eng.Generate(stepCtx, engine.GenerateParams{
				Prompt:      prompt,
				MaxTokens:   a.cfg.MaxTokensPerStep,
				Temperature: a.cfg.Temperature,
				Grammar:     a.registry.GrammarFragment(),
			})
			stepSpan.End()
			if err != nil {
				return a.fail(span, step, neuronerr.Wrap(neuronerr.KindEngineError, "agent sampling", err))
			}
			lastAssistantText = result.Text
			state = StateParsing
			a.pendingRaw = result.Text

		case StateParsing:
			decision, err := parseDecision(a.pendingRaw)
			if err != nil {
				malformedStreak++
				stepCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("action", "malformed")))
				if malformedStreak >= 2 {
					state = StateFailed
					continue
				}
				a.acct.Append(contextacct.Turn{Role: contextacct.RoleSystem, Text: retryReminder})
				state = StateSampling
				continue
			}
			malformedStreak = 0
			a.pendingDecision = decision

			if decision.Action == ActionFinal {
				state = StateFinal
			} else {
				state = StateExecuting
			}

		case StateExecuting:
			observation := a.dispatch(ctx, a.pendingDecision)
			actionJSON, _ := json.Marshal(a.pendingDecision)

			toolCallTurn := contextacct.Turn{Role: contextacct.RoleAssistant, Text: string(actionJSON), IsToolCall: true}
			observationTurn := contextacct.Turn{Role: contextacct.RoleTool, Text: observation, IsObservation: true}
			a.acct.Append(toolCallTurn)
			a.acct.Append(observationTurn)
			a.recordRecall(toolCallTurn, observationTurn)

			step++
			stepCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("action", "tool")))
			if a.cfg.OnStep != nil {
				a.cfg.OnStep(step, a.pendingDecision.Thought, string(actionJSON), observation)
			}

			if step >= a.cfg.MaxSteps {
				state = StateFailed
				continue
			}
			state = StatePrompting

		case StateFinal:
			actionJSON, _ := json.Marshal(a.pendingDecision)
			finalTurn := contextacct.Turn{Role: contextacct.RoleAssistant, Text: string(actionJSON)}
			a.acct.Append(finalTurn)
			a.recordRecall(finalTurn)
			step++
			stepCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("action", "final")))
			if a.cfg.OnStep != nil {
				a.cfg.OnStep(step, a.pendingDecision.Thought, string(actionJSON), "")
			}
			return Result{Status: StatusFinal, Answer: a.pendingDecision.Answer, Steps: step}, nil

		case StateFailed:
			if step >= a.cfg.MaxSteps {
				return Result{Status: StatusFailed, Answer: lastAssistantText, Steps: step},
					neuronerr.New(neuronerr.KindStepBudgetExhausted, "agent exceeded max steps")
			}
			return Result{Status: StatusFailed, Answer: lastAssistantText, Steps: step},
				neuronerr.New(neuronerr.KindParseError, "agent decision malformed twice")
		}
	}
}

// recordRecall appends each completed turn to Recall as it's recorded,
// per spec.md §4.5 ("On agent turn completion, the turn is appended")
// and Testable Scenario 5 ("Recall contains both turns"). Uses the
// same write-through Entry shape as contextacct's write-before-compact
// path. Recall is best-effort: a write failure here must not abort an
// otherwise-successful agent turn.
func (a *Agent) recordRecall(turns ...contextacct.Turn) {
	if a.mem == nil {
		return
	}
	for _, t := range turns {
		_, _ = a.mem.AppendRecall(memory.Entry{
			Text:     fmt.Sprintf("[%s] %s", t.Role, t.Text),
			Metadata: map[string]string{"role": string(t.Role)},
		})
	}
}

func (a *Agent) fail(span trace.Span, step int, err error) (Result, error) {
	span.RecordError(err)
	return Result{Status: StatusFailed, Steps: step}, err
}

// dispatch executes one tool call, per spec.md §4.7 step 5.
func (a *Agent) dispatch(ctx context.Context, d Decision) string {
	if _, ok := a.registry.Lookup(d.Tool); !ok {
		toolDispatchCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", d.Tool), attribute.String("outcome", "not_found")))
		return "unknown tool: " + d.Tool
	}

	res := a.registry.Execute(d.Tool, string(d.Args), a.cfg.Capabilities)
	outcome := "success"
	var observation string
	if res.Success {
		observation = res.Output
	} else {
		outcome = "failure"
		observation = res.Error
	}
	toolDispatchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", d.Tool), attribute.String("outcome", outcome)))

	if len(observation) > ObservationCap {
		observation = observation[:ObservationCap] + fmt.Sprintf("... [truncated, %d bytes total]", len(res.Output)+len(res.Error))
	}
	return observation
}
