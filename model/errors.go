package model

import (
	"context"
	"errors"
	"net/http"

	"github.com/hupe1980/agentcrew/core"
)

// StatusSiteOverloaded is the non-standard status Anthropic uses when the
// API is temporarily overloaded.
const StatusSiteOverloaded = 529

// ClassifyStatus maps a backend failure onto the model error taxonomy.
//
//	429, 529                 -> ModelOverloaded
//	400, 413, 422            -> PromptRejected
//	anything else / status 0 -> ModelUnavailable
//
// Context errors are returned unchanged so the caller can distinguish a
// cancelled run from a per-call timeout.
func ClassifyStatus(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	if status == 0 && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return err
	}

	switch status {
	case http.StatusTooManyRequests, StatusSiteOverloaded:
		return core.WrapError(core.KindModelOverloaded, provider, status, err)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return core.WrapError(core.KindPromptRejected, provider, status, err)
	default:
		return core.WrapError(core.KindModelUnavailable, provider, status, err)
	}
}

// ClassifyFinishReason turns provider finish reasons that signal a refused
// completion into PromptRejected. It returns nil for normal finishes.
func ClassifyFinishReason(provider, reason string) error {
	switch reason {
	case "content_filter", "refusal":
		return core.NewError(core.KindPromptRejected, provider, "completion blocked: "+reason)
	default:
		return nil
	}
}
