package core

import (
	"fmt"
	"strings"
)

// Action is one of the text operations offered to the user
type Action string

// Action constants
const (
	ActionCorrect   Action = "correct"
	ActionEnhance   Action = "enhance"
	ActionTranslate Action = "translate"
	ActionExecute   Action = "execute"
)

// DefaultLanguage is the translation target when none is chosen
const DefaultLanguage = "French"

// Languages lists the translation targets offered in the form
var Languages = []string{"French", "English", "Spanish", "Hebrew"}

// Actions lists every supported action in display order
var Actions = []Action{ActionCorrect, ActionEnhance, ActionExecute, ActionTranslate}

// ParseAction converts a user supplied name into an Action
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", NewInvalidInputError(fmt.Sprintf("unknown action %q", name))
}

// BuildPrompt wraps text in the instructions for the given action.
// language is only used by ActionTranslate and defaults to DefaultLanguage.
func BuildPrompt(action Action, text, language string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", NewInvalidInputError("text is empty")
	}

	switch action {
	case ActionCorrect:
		return fmt.Sprintf("Please correct any grammar, spelling, or punctuation errors in the following text. "+
			"Respond with only the corrected text, and nothing else.\n\nText to correct:\n\"%s\"", text), nil
	case ActionEnhance:
		return fmt.Sprintf("Please enhance the following text for a more professional and impressive impression. "+
			"Respond with only the enhanced text, and nothing else.\n\nText to enhance:\n\"%s\"", text), nil
	case ActionTranslate:
		if strings.TrimSpace(language) == "" {
			language = DefaultLanguage
		}
		return fmt.Sprintf("Please translate the following text into %s. "+
			"Respond with only the translated text, and nothing else.\n\nText to translate:\n\"%s\"", language, text), nil
	case ActionExecute:
		return fmt.Sprintf("Please respond to the following request with only the result, and nothing else:\n\"%s\"", text), nil
	default:
		return "", NewInvalidInputError(fmt.Sprintf("unknown action %q", action))
	}
}
