package actions

import "github.com/nathoo/heartweek/engine/errs"

// Resolve finds the generated action with the requested digest.
func Resolve(digest string, list []Action) (Action, error) {
	for _, a := range list {
		if a.Digest == digest {
			return a, nil
		}
	}
	return Action{}, &errs.NotFoundError{Kind: "action", Key: digest}
}
