package oauth

import (
	dErrors "provenance/pkg/domain-errors"
)

// CallbackError is an error the authorization server reported on the
// redirect back to us, such as access_denied.
type CallbackError struct {
	Code        string
	Description string
}

func (e *CallbackError) Error() string {
	if e.Description == "" {
		return "oauth callback: " + e.Code
	}
	return "oauth callback: " + e.Code + ": " + e.Description
}

func (e *CallbackError) DomainCode() dErrors.Code {
	return dErrors.CodeBadRequest
}

func (e *CallbackError) DomainMessage() string {
	if e.Description != "" {
		return e.Description
	}
	return "authorization failed: " + e.Code
}
