// Package command parses explicit prefix commands ("/clear", "/aller
// taches") that bypass intent detection.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/soyeahso/sidekick/internal/textnorm"
)

// Kind is what a command does.
type Kind string

const (
	KindClear    Kind = "clear"
	KindHelp     Kind = "help"
	KindNavigate Kind = "navigate"
)

// Command describes one explicit command. Names are given without prefix.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string // arguments, e.g. "<page>"
	Kind        Kind
	// Action is the navigation action of a page shortcut. Empty for
	// commands that take the page as argument.
	Action string
}

// Parsed is a matched command with its arguments.
type Parsed struct {
	Command Command
	Name    string
	Args    []string
}

// ErrNotCommand is returned for input that does not start with the prefix.
var ErrNotCommand = errors.New("command: input is not a command")

// UnknownError is returned for a prefixed word that matches no command.
type UnknownError struct {
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("command: unknown command %q", e.Name)
}

// Parser matches prefixed input against registered commands.
type Parser struct {
	prefix string

	mu       sync.RWMutex
	commands []Command
}

// NewParser creates a parser for the given prefix ("/" when empty).
func NewParser(prefix string, cmds ...Command) *Parser {
	if prefix == "" {
		prefix = "/"
	}
	p := &Parser{prefix: prefix}
	for _, c := range cmds {
		p.Register(c)
	}
	return p
}

// Prefix returns the command prefix.
func (p *Parser) Prefix() string { return p.prefix }

// Register adds a command. A later command with the same name replaces the
// earlier one.
func (p *Parser) Register(c Command) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.commands {
		if p.commands[i].Name == c.Name {
			p.commands[i] = c
			return
		}
	}
	p.commands = append(p.commands, c)
}

// IsCommand reports whether text uses the command syntax.
func (p *Parser) IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), p.prefix)
}

// Parse tokenises text and finds the matching command.
func (p *Parser) Parse(text string) (Parsed, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, p.prefix) {
		return Parsed{}, ErrNotCommand
	}
	fields := strings.Fields(strings.TrimPrefix(text, p.prefix))
	if len(fields) == 0 {
		return Parsed{}, &UnknownError{Name: ""}
	}
	name := textnorm.Fold(fields[0])
	cmd, ok := p.Find(name)
	if !ok {
		return Parsed{}, &UnknownError{Name: name}
	}
	return Parsed{Command: cmd, Name: name, Args: fields[1:]}, nil
}

// Find looks a command up by name or alias, ignoring case and accents.
func (p *Parser) Find(name string) (Command, bool) {
	name = textnorm.Fold(strings.TrimPrefix(name, p.prefix))
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.commands {
		if textnorm.Fold(c.Name) == name {
			return c, true
		}
		for _, a := range c.Aliases {
			if textnorm.Fold(a) == name {
				return c, true
			}
		}
	}
	return Command{}, false
}

// Commands returns the registered commands sorted by name.
func (p *Parser) Commands() []Command {
	p.mu.RLock()
	out := make([]Command, len(p.commands))
	copy(out, p.commands)
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Complete returns the commands whose name or alias starts with partial,
// which may include the prefix.
func (p *Parser) Complete(partial string) []Command {
	partial = textnorm.Fold(strings.TrimPrefix(strings.TrimSpace(partial), p.prefix))
	var out []Command
	for _, c := range p.Commands() {
		names := append([]string{c.Name}, c.Aliases...)
		for _, n := range names {
			if strings.HasPrefix(textnorm.Fold(n), partial) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Syntax returns how to type c with the parser's prefix.
func (p *Parser) Syntax(c Command) string {
	if c.Usage == "" {
		return p.prefix + c.Name
	}
	return p.prefix + c.Name + " " + c.Usage
}

// Usage renders the list of commands for help and unknown-command replies.
func (p *Parser) Usage() string {
	var b strings.Builder
	for _, c := range p.Commands() {
		fmt.Fprintf(&b, "\n- `%s` : %s", p.Syntax(c), c.Description)
	}
	return b.String()
}
