// Package llm provides the generation capability used by the planning and
// drafting stages: a chat client that talks to an OpenAI-compatible endpoint
// or an Ollama server.
//
// # Backends
//
// Config.Backend selects openai, ollama or auto. Auto treats a base URL that
// already ends in /v1 as openai; otherwise it probes {base}/v1/models once
// and uses openai at {base}/v1 on success, ollama at {base} on failure. The
// resolution is cached for the life of the client.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Requests pass through a token-bucket limiter sized by
// Config.RequestsPerMinute. Context cancellation aborts retries immediately.
//
// # Errors
//
// Every failure is returned as *services.GenerationError, or
// *services.TimeoutError when the call deadline passed. Callers never
// substitute default content on failure.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Generate: send chat messages, receive the completion text.
// Client.HealthCheck: verify the backend answers its model listing.
// DecodeLLMJSON / StripFences: tolerate fenced or chatty JSON replies.
package llm
