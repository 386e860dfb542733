package handlers

import (
	"net/http"

	"adcraft/internal/middleware"
	"adcraft/internal/providers/prompt"
)

type enhancePromptRequest struct {
	Prompt string `json:"prompt" validate:"required,min=3,max=2000"`
	Locale string `json:"locale" validate:"omitempty,bcp47_language_tag"`
}

// PromptEnhance rewrites a terse user prompt into a detailed photography
// prompt. The locale comes from the request body when given, otherwise from
// the negotiated request locale.
func (a *App) PromptEnhance(w http.ResponseWriter, r *http.Request) {
	var req enhancePromptRequest
	if !a.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	locale := req.Locale
	if locale == "" {
		locale = middleware.LocaleFromContext(ctx)
	}

	res, err := a.Enhancer.Enhance(ctx, prompt.EnhanceRequest{Prompt: req.Prompt, Locale: locale})
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{
		"prompt":   res.Prompt,
		"provider": res.Provider,
	})
}
