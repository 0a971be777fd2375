// Package model defines the provider-agnostic abstractions for interacting
// with language models inside tourmesh.
//
// Providers (OpenAI, Anthropic) implement the Model interface so agents and
// flows stay decoupled from vendor SDKs. ScriptedModel replays canned replies
// for tests and offline runs.
package model
