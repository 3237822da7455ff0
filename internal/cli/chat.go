package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soyeahso/sidekick/internal/assistant"
	"github.com/soyeahso/sidekick/internal/config"
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/logging"
	"github.com/soyeahso/sidekick/internal/routing"
)

// TerminalChannel is the session channel of turns typed in the terminal.
const TerminalChannel = "cli"

// turnOptions are the flags shared by chat and ask.
type turnOptions struct {
	session string
	user    string
	page    string
	perms   []string
	json    bool
}

func (o *turnOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.session, "session", "local", "session id; flows resume across runs with a persistent store")
	cmd.Flags().StringVar(&o.user, "user", "", "display name of the user")
	cmd.Flags().StringVar(&o.page, "page", "", "current page (default from config)")
	cmd.Flags().StringSliceVar(&o.perms, "perm", []string{domain.AllPermissions}, "granted permissions")
	cmd.Flags().BoolVar(&o.json, "json", false, "print the raw response envelope")
}

func (o *turnOptions) key() domain.SessionKey {
	return domain.SessionKey{ChannelID: TerminalChannel, ChatID: o.session, SenderID: o.user}
}

func (o *turnOptions) context(cfg config.Config, page string) domain.AssistantContext {
	if page == "" {
		page = cfg.Assistant.DefaultPage
	}
	id := o.user
	if id == "" {
		id = "local"
	}
	return domain.AssistantContext{
		User:        domain.User{ID: id, Name: o.user},
		CurrentPage: page,
		Permissions: o.perms,
		Locale:      cfg.Assistant.Locale,
	}
}

// terminal prints responses with colors when stdout is a terminal.
type terminal struct {
	w     io.Writer
	json  bool
	reply *color.Color
	fail  *color.Color
	hint  *color.Color
}

func newTerminal(w io.Writer, raw bool) *terminal {
	return &terminal{
		w:     w,
		json:  raw,
		reply: color.New(color.FgCyan),
		fail:  color.New(color.FgRed),
		hint:  color.New(color.Faint),
	}
}

func (t *terminal) render(resp assistant.Response) error {
	if t.json {
		enc := json.NewEncoder(t.w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	body := resp
	body.Suggestions = nil
	c := t.reply
	if resp.Message.IsError {
		c = t.fail
	}
	c.Fprintln(t.w, routing.RenderText(body))
	t.suggestions(resp.Suggestions)
	return nil
}

func (t *terminal) suggestions(s []domain.Suggestion) {
	if len(s) == 0 || t.json {
		return
	}
	labels := make([]string, len(s))
	for i, sg := range s {
		labels[i] = sg.Label
	}
	t.hint.Fprintln(t.w, "  "+strings.Join(labels, " · "))
}

// quietLog keeps the console free for the conversation unless a level
// was asked for.
func quietLog() *logging.Logger {
	if logLevel != "" {
		return log
	}
	return logging.New(nil, "error")
}

func newChatCmd() *cobra.Command {
	var opts turnOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			eng, err := newEngine(ctx, cfg, paths, quietLog())
			if err != nil {
				return err
			}
			defer eng.Close()

			return chatLoop(ctx, eng, cfg, &opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	opts.bind(cmd)
	return cmd
}

// chatLoop reads one turn per line until EOF, "exit" or "quit".
func chatLoop(ctx context.Context, eng *engine, cfg config.Config, opts *turnOptions, in io.Reader, out io.Writer) error {
	term := newTerminal(out, opts.json)
	prompt := color.New(color.Bold)
	page := opts.page

	fmt.Fprintf(out, "%s. Tapez \"exit\" pour quitter.\n", cfg.Assistant.Name)
	term.suggestions(eng.stack.Processor.Welcome(opts.context(cfg, page)))

	scanner := bufio.NewScanner(in)
	for {
		prompt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		resp := eng.runner.Run(ctx, assistant.Turn{
			Session: opts.key(),
			Text:    line,
			Context: opts.context(cfg, page),
		})
		if resp.NavigateTo != "" {
			page = resp.NavigateTo
		}
		if err := term.render(resp); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func newAskCmd() *cobra.Command {
	var opts turnOptions

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to the assistant and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			eng, err := newEngine(ctx, cfg, paths, quietLog())
			if err != nil {
				return err
			}
			defer eng.Close()

			resp := eng.runner.Run(ctx, assistant.Turn{
				Session: opts.key(),
				Text:    strings.Join(args, " "),
				Context: opts.context(cfg, opts.page),
			})
			return newTerminal(cmd.OutOrStdout(), opts.json).render(resp)
		},
	}
	opts.bind(cmd)
	return cmd
}
