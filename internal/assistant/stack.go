package assistant

import (
	"time"

	"github.com/soyeahso/sidekick/internal/action"
	"github.com/soyeahso/sidekick/internal/catalogue"
	"github.com/soyeahso/sidekick/internal/command"
	"github.com/soyeahso/sidekick/internal/flow"
	"github.com/soyeahso/sidekick/internal/intent"
	"github.com/soyeahso/sidekick/internal/logging"
	"github.com/soyeahso/sidekick/internal/suggest"
)

// StackConfig configures NewStack.
type StackConfig struct {
	CommandPrefix string
	Vocabulary    flow.Vocabulary
	ThinkingDelay time.Duration
	// Clock drives date shortcuts; time.Now when nil.
	Clock func() time.Time
}

// Stack is a processor wired to the built-in catalogue, together with the
// registries a host extends.
type Stack struct {
	Processor   *Processor
	Executor    *action.Executor
	Flows       *flow.Registry
	Intents     *intent.Catalogue
	Commands    *command.Parser
	Suggestions *suggest.Engine
}

// NewStack builds the built-in catalogue and a processor over it. Domain
// invokers (create_task, ...) are not registered.
func NewStack(cfg StackConfig, log *logging.Logger) *Stack {
	intents := catalogue.NewIntentCatalogue()
	flows := catalogue.NewFlowRegistry()
	cmds := command.NewParser(cfg.CommandPrefix, command.Builtin()...)
	vocab := cfg.Vocabulary.WithDefaults()

	exec := action.NewExecutor(log)
	catalogue.RegisterInvokers(exec, intents, cmds)

	opts := []suggest.Option{suggest.WithCommands(cmds), suggest.WithVocabulary(vocab)}
	if cfg.Clock != nil {
		opts = append(opts, suggest.WithClock(cfg.Clock))
	}
	sugg := suggest.NewEngine(catalogue.Suggestions(), intents, opts...)

	proc := NewProcessor(Deps{
		Detector:    intent.NewDetector(intents),
		Commands:    cmds,
		Flows:       flows,
		Engine:      flow.NewEngine(vocab),
		Executor:    exec,
		Suggestions: sugg,
		Permissions: intents,
	}, log, WithThinkingDelay(cfg.ThinkingDelay))

	return &Stack{
		Processor:   proc,
		Executor:    exec,
		Flows:       flows,
		Intents:     intents,
		Commands:    cmds,
		Suggestions: sugg,
	}
}
