// Package translation turns page text into ordered source/target sentence
// pairs. The public Google translate endpoint is the default backend; OpenAI
// and Gemini chat models can be used instead. Every backend call goes
// through a rate limiter and a circuit breaker.
package translation
