// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with language models inside agentcrew.
//
// Core goals:
//   - One synchronous prompt/response contract (Model.Generate)
//   - Uniform error classification (ClassifyStatus) onto the core taxonomy
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight scripting for tests (MockModel)
//
// Providers (OpenAI-compatible endpoints such as OpenAI and Groq, Anthropic)
// implement the Model interface in sub-packages so the agent loop remains
// decoupled from vendor SDKs.
package model
