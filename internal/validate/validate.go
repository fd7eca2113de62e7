// Package validate checks chat requests before any adapter is invoked.
package validate

import (
	"fmt"
	"strings"

	"github.com/gawin-ai/gateway/internal/policy"
	"github.com/gawin-ai/gateway/providers"
)

// MalformedRequestError reports a structurally invalid request.
type MalformedRequestError struct {
	Detail string
}

func (e *MalformedRequestError) Error() string {
	return "malformed request: " + e.Detail
}

// ContentPolicyError reports a request whose last user message violates the
// content policy. Reasons is a human-readable list of violations.
type ContentPolicyError struct {
	Reasons []string
}

func (e *ContentPolicyError) Error() string {
	return "content policy violation: " + strings.Join(e.Reasons, "; ")
}

// Validator performs structural and content-policy validation. The zero value
// is not usable; construct with New.
type Validator struct {
	checker policy.Checker
}

// New returns a Validator using the given content-policy checker. A nil
// checker disables the policy stage.
func New(checker policy.Checker) *Validator {
	if checker == nil {
		checker = policy.AllowAll{}
	}
	return &Validator{checker: checker}
}

// Validate checks req and returns a *MalformedRequestError or
// *ContentPolicyError on failure. It never mutates req.
func (v *Validator) Validate(req *providers.Request) error {
	if req == nil {
		return &MalformedRequestError{Detail: "request body is required"}
	}
	if len(req.Messages) == 0 {
		return &MalformedRequestError{Detail: "messages must be a non-empty array"}
	}
	for i, m := range req.Messages {
		switch m.Role {
		case providers.RoleUser, providers.RoleAssistant, providers.RoleSystem:
		default:
			return &MalformedRequestError{Detail: fmt.Sprintf("messages[%d] has unknown role %q", i, m.Role)}
		}
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != providers.RoleUser {
		return &MalformedRequestError{Detail: "last message must have role \"user\""}
	}
	text := req.LastUserContent()
	if strings.TrimSpace(text) == "" && !hasImagePart(last) {
		return &MalformedRequestError{Detail: "last user message has no content"}
	}
	if reasons := v.checker.Check(text); len(reasons) > 0 {
		return &ContentPolicyError{Reasons: reasons}
	}
	return nil
}

func hasImagePart(m providers.Message) bool {
	for _, p := range m.ContentParts {
		if p.Type == providers.ContentTypeImageURL {
			return true
		}
	}
	return false
}
