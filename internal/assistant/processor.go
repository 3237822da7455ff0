// Package assistant resolves user turns: it routes a message to the active
// flow, a prefix command or the intent detector, and wraps every outcome in
// a Response envelope.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/soyeahso/sidekick/internal/action"
	"github.com/soyeahso/sidekick/internal/command"
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/flow"
	"github.com/soyeahso/sidekick/internal/intent"
	"github.com/soyeahso/sidekick/internal/logging"
	"github.com/soyeahso/sidekick/internal/suggest"
)

// DefaultHelpAction is run by the help command when an invoker exists.
const DefaultHelpAction = "help"

// Deps are the collaborators a Processor composes. Detector, Flows,
// Executor and Suggestions are required.
type Deps struct {
	Detector    *intent.Detector
	Commands    *command.Parser
	Flows       *flow.Registry
	Engine      *flow.Engine
	Executor    *action.Executor
	Suggestions *suggest.Engine
	// Permissions defaults to the detector's catalogue.
	Permissions domain.PermissionChecker
}

// Option configures a Processor.
type Option func(*Processor)

// WithThinkingDelay sets the pause applied before every response.
func WithThinkingDelay(d time.Duration) Option {
	return func(p *Processor) { p.delay = d }
}

// WithMessages overrides the processor's strings.
func WithMessages(m Messages) Option {
	return func(p *Processor) { p.msgs = m }
}

// WithHelpAction sets the action run by the help command.
func WithHelpAction(a string) Option {
	return func(p *Processor) { p.helpAction = a }
}

// Processor turns (input, context, flow) into a Response. It keeps no
// per-session state and is safe for concurrent use across sessions.
type Processor struct {
	detector   *intent.Detector
	commands   *command.Parser
	flows      *flow.Registry
	engine     *flow.Engine
	exec       *action.Executor
	suggest    *suggest.Engine
	perms      domain.PermissionChecker
	msgs       Messages
	helpAction string
	delay      time.Duration
	log        *logging.Logger
}

// NewProcessor creates a processor.
func NewProcessor(d Deps, log *logging.Logger, opts ...Option) *Processor {
	p := &Processor{
		detector:   d.Detector,
		commands:   d.Commands,
		flows:      d.Flows,
		engine:     d.Engine,
		exec:       d.Executor,
		suggest:    d.Suggestions,
		perms:      d.Permissions,
		msgs:       DefaultMessages(),
		helpAction: DefaultHelpAction,
		log:        log.Sub("assistant"),
	}
	if p.commands == nil {
		p.commands = command.NewParser("", command.Builtin()...)
	}
	if p.engine == nil {
		p.engine = flow.NewEngine(flow.DefaultVocabulary())
	}
	if p.perms == nil {
		p.perms = d.Detector.Catalogue()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Flows returns the flow registry.
func (p *Processor) Flows() *flow.Registry { return p.flows }

// Autocomplete returns pre-submit hints for partially typed input.
func (p *Processor) Autocomplete(partial string, actx domain.AssistantContext) []domain.Suggestion {
	return p.suggest.Autocomplete(partial, actx)
}

// Welcome returns the suggestions shown before the first message.
func (p *Processor) Welcome(actx domain.AssistantContext) []domain.Suggestion {
	return p.suggest.Contextual(actx)
}

// Process resolves one user turn. active is the flow returned by the
// previous turn, or nil. Process never fails: every error becomes a
// response.
func (p *Processor) Process(ctx context.Context, input string, actx domain.AssistantContext, active *flow.ActiveFlow) Response {
	start := time.Now()
	resp := p.resolve(ctx, input, actx, active)
	p.think(ctx)

	p.log.Debug().
		Str("path", string(resp.Trace.Path)).
		Str("action", resp.Trace.Action).
		Str("flowState", string(resp.Trace.FlowState)).
		Bool("executed", resp.Trace.Executed).
		Dur("duration", time.Since(start)).
		Msg("turn resolved")
	return resp
}

func (p *Processor) resolve(ctx context.Context, input string, actx domain.AssistantContext, active *flow.ActiveFlow) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("turn panicked")
			msg := domain.NewAssistantMessage(p.msgs.Internal)
			msg.IsError = true
			resp = Response{Kind: KindMessage, Message: msg, Flow: active}
		}
	}()

	switch {
	case active != nil:
		return p.advance(ctx, input, actx, active)
	case p.commands.IsCommand(input):
		return p.command(ctx, input, actx)
	default:
		return p.detect(ctx, input, actx)
	}
}

func (p *Processor) detect(ctx context.Context, input string, actx domain.AssistantContext) Response {
	det := p.detector.Detect(input)
	trace := Trace{Path: PathIntent, Action: det.Action, Category: det.Category, Confidence: det.Confidence}
	if !det.Known() {
		return p.reply(p.msgs.NotUnderstood, p.suggest.Contextual(actx), trace)
	}
	return p.dispatch(ctx, det.Action, det.Entities, actx, trace)
}

// dispatch checks permission, then starts the action's flow or runs it.
func (p *Processor) dispatch(ctx context.Context, act string, params map[string]string, actx domain.AssistantContext, trace Trace) Response {
	trace.Action = act
	if !p.perms.HasPermissionForAction(actx, act) {
		p.log.Info().Str("action", act).Str("user", actx.User.ID).Msg("action refused by permissions")
		return p.refuse(p.msgs.Forbidden, actx, trace)
	}

	def, _ := p.detector.Catalogue().Get(act)
	if trace.Category == "" {
		trace.Category = def.Category
	}
	if def.RequiresFlow {
		return p.start(ctx, act, params, actx, trace)
	}
	return p.execute(ctx, act, params, actx, trace)
}

func (p *Processor) start(ctx context.Context, act string, entities map[string]string, actx domain.AssistantContext, trace Trace) Response {
	def, ok := p.flows.Get(act)
	if !ok {
		p.log.Warn().Str("action", act).Msg("action requires a flow but none is registered")
		return p.refuse(fmt.Sprintf(p.msgs.NoFlow, act), actx, trace)
	}

	out := p.engine.Start(def, entities)
	trace.FlowStart = true
	trace.FlowState = out.State
	if out.State == flow.StateCompleted {
		return p.execute(ctx, act, out.Data, actx, trace)
	}
	return p.pending(out, actx, trace)
}

func (p *Processor) advance(ctx context.Context, input string, actx domain.AssistantContext, active *flow.ActiveFlow) Response {
	out := p.engine.Advance(active, input)
	trace := Trace{Path: PathFlow, Action: active.Action, Category: p.category(active.Action), FlowState: out.State}

	switch out.State {
	case flow.StateCancelled:
		return p.reply(out.Message, p.suggest.Contextual(actx), trace)
	case flow.StateCompleted:
		if !p.perms.HasPermissionForAction(actx, out.Action) {
			return p.refuse(p.msgs.Forbidden, actx, trace)
		}
		return p.execute(ctx, out.Action, out.Data, actx, trace)
	}
	return p.pending(out, actx, trace)
}

func (p *Processor) command(ctx context.Context, input string, actx domain.AssistantContext) Response {
	trace := Trace{Path: PathCommand}
	parsed, err := p.commands.Parse(input)
	var unknown *command.UnknownError
	if errors.As(err, &unknown) {
		text := p.msgs.EmptyCommand
		if unknown.Name != "" {
			text = fmt.Sprintf(p.msgs.UnknownCommand, p.commands.Prefix()+unknown.Name)
		}
		return p.reply(text+"\n\n**Commandes disponibles**"+p.commands.Usage(), p.suggest.Contextual(actx), trace)
	}
	if err != nil {
		return p.detect(ctx, input, actx)
	}

	switch parsed.Command.Kind {
	case command.KindClear:
		return Response{
			Kind:        KindClearConversation,
			Message:     domain.NewAssistantMessage(p.msgs.Cleared),
			Suggestions: p.suggest.Contextual(actx),
			SideEffects: map[string]any{SideEffectClearConversation: true},
			Trace:       trace,
		}
	case command.KindHelp:
		if p.exec.Has(p.helpAction) {
			return p.dispatch(ctx, p.helpAction, nil, actx, trace)
		}
		return p.reply("**Commandes**"+p.commands.Usage(), p.suggest.Contextual(actx), trace)
	case command.KindNavigate:
		act := parsed.Command.Action
		if act == "" {
			if len(parsed.Args) == 0 {
				return p.reply(fmt.Sprintf(p.msgs.NavigateUsage, p.commands.Prefix()), p.suggest.Contextual(actx), trace)
			}
			page := strings.Join(parsed.Args, " ")
			var ok bool
			if act, ok = command.PageAction(page); !ok {
				return p.reply(fmt.Sprintf(p.msgs.UnknownPage, page), p.suggest.Contextual(actx), trace)
			}
		}
		return p.dispatch(ctx, act, nil, actx, trace)
	}
	return p.reply(p.msgs.EmptyCommand, p.suggest.Contextual(actx), trace)
}

func (p *Processor) execute(ctx context.Context, act string, params map[string]string, actx domain.AssistantContext, trace Trace) Response {
	res := p.exec.Execute(ctx, act, params, actx)
	trace.Action = act
	trace.Executed = true
	trace.Success = res.Success

	msg := domain.NewAssistantMessage(res.Message)
	msg.Attachment = res.Attachment
	msg.IsError = !res.Success

	suggestions := p.suggest.Filter(actx, res.FollowUpSuggestions)
	if len(suggestions) == 0 {
		suggestions = p.suggest.FollowUps(trace.Category, actx)
	}

	var effects map[string]any
	if len(res.Data) > 0 {
		effects = maps.Clone(res.Data)
	}
	return Response{
		Kind:        KindMessage,
		Message:     msg,
		Suggestions: suggestions,
		NavigateTo:  res.NavigateTo,
		SideEffects: effects,
		Trace:       trace,
	}
}

func (p *Processor) pending(out flow.Outcome, actx domain.AssistantContext, trace Trace) Response {
	var suggestions []domain.Suggestion
	if out.Step != nil {
		suggestions = p.suggest.ForStep(*out.Step, actx)
	}
	return Response{
		Kind:        KindMessage,
		Message:     domain.NewAssistantMessage(out.Message),
		Suggestions: suggestions,
		Flow:        out.Flow,
		Trace:       trace,
	}
}

func (p *Processor) reply(text string, suggestions []domain.Suggestion, trace Trace) Response {
	return Response{
		Kind:        KindMessage,
		Message:     domain.NewAssistantMessage(text),
		Suggestions: suggestions,
		Trace:       trace,
	}
}

func (p *Processor) refuse(text string, actx domain.AssistantContext, trace Trace) Response {
	resp := p.reply(text, p.suggest.Contextual(actx), trace)
	resp.Message.IsError = true
	return resp
}

func (p *Processor) category(act string) string {
	if def, ok := p.detector.Catalogue().Get(act); ok {
		return def.Category
	}
	return intent.CategoryGeneral
}

func (p *Processor) think(ctx context.Context) {
	if p.delay <= 0 {
		return
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
