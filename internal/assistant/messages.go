package assistant

// Messages holds the processor's own user-facing strings.
type Messages struct {
	NotUnderstood  string
	Forbidden      string
	NoFlow         string // %s is the action
	UnknownCommand string // %s is the typed command
	EmptyCommand   string
	Cleared        string
	NavigateUsage  string // %s is the command prefix
	UnknownPage    string // %s is the page
	Internal       string
	Busy           string
}

// DefaultMessages returns the French strings.
func DefaultMessages() Messages {
	return Messages{
		NotUnderstood:  "Je n'ai pas bien compris votre demande. Voici quelques idées :",
		Forbidden:      "Désolé, vous n'avez pas les droits nécessaires pour cette action.",
		NoFlow:         "Désolé, je ne sais pas encore vous guider pour cette demande (%s).",
		UnknownCommand: "Commande inconnue : `%s`.",
		EmptyCommand:   "Quelle commande ?",
		Cleared:        "La conversation a été effacée.",
		NavigateUsage:  "Précisez la page à ouvrir, par exemple `%saller taches`.",
		UnknownPage:    "Je ne connais pas la page « %s ».",
		Internal:       "Désolé, une erreur interne est survenue. Réessayez dans un instant.",
		Busy:           "Je traite encore votre message précédent.",
	}
}
