package routing

import (
	"fmt"
	"strings"

	"github.com/soyeahso/sidekick/internal/assistant"
)

var markdown = strings.NewReplacer("**", "", "`", "")

// RenderText flattens a response for text-only channels: the message, its
// attachment, the page the host would open and the suggestions.
func RenderText(resp assistant.Response) string {
	var b strings.Builder
	b.WriteString(markdown.Replace(resp.Message.Content))

	if a := resp.Message.Attachment; a != nil {
		if a.Title != "" {
			fmt.Fprintf(&b, "\n[%s]", a.Title)
		}
		for _, f := range a.Fields {
			fmt.Fprintf(&b, "\n  %s : %s", f.Label, f.Value)
		}
		for _, item := range a.Items {
			fmt.Fprintf(&b, "\n  - %s", item)
		}
		if a.Link != "" {
			fmt.Fprintf(&b, "\n  %s", a.Link)
		}
	}

	if resp.NavigateTo != "" {
		fmt.Fprintf(&b, "\n-> %s", resp.NavigateTo)
	}

	if len(resp.Suggestions) > 0 {
		chips := make([]string, 0, len(resp.Suggestions))
		for _, s := range resp.Suggestions {
			if s.Query == "" || s.Query == s.Label {
				chips = append(chips, "["+s.Label+"]")
			} else {
				chips = append(chips, "["+s.Label+": "+s.Query+"]")
			}
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(chips, " "))
	}
	return strings.TrimSpace(b.String())
}
