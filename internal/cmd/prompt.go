package cmd

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/go-faster/errors"
)

// Prompter asks the user for one value.
type Prompter interface {
	Ask(message string, secret bool) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Ask(message string, secret bool) (string, error) {
	var prompt survey.Prompt = &survey.Input{Message: message}
	if secret {
		prompt = &survey.Password{Message: message}
	}
	var answer string
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
		return "", errors.Wrap(err, "prompt")
	}
	return answer, nil
}

// prompter is swapped in tests.
var prompter Prompter = surveyPrompter{}
