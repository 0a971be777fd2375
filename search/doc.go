// Package search adapts the Tavily web search API into the internet_search
// tool used by the tour planning agents.
//
// The tool never fails from the model's point of view: a missing API key or
// a failed request is reported as an {"error": "..."} payload so the model can
// react and the turn continues.
package search
