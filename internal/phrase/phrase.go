// Package phrase builds the spoken confirmation prompts played back to the
// user after a recognition attempt.
package phrase

import "fmt"

// confirmLead is the per-language opening of the confirmation question.
// English is the fallback for languages without a localisation.
var confirmLead = map[string]string{
	"en-US": "Did you say",
	"es-ES": "Dijiste",
	"pt-BR": "Você disse",
	"it-IT": "Hai detto",
}

// Confirmation returns the question asking the user to confirm the
// recognised name, localised for lang.
func Confirmation(lang, name string) string {
	lead, ok := confirmLead[lang]
	if !ok {
		lead = confirmLead["en-US"]
	}
	return fmt.Sprintf("%s %s?", lead, name)
}

// Localized reports whether a dedicated confirmation phrase exists for
// lang (as opposed to the English fallback).
func Localized(lang string) bool {
	_, ok := confirmLead[lang]
	return ok
}
