// Package agent provides the model-backed agent implementation and the
// health assistant team built on top of it.
//
// LLMAgent drives a language model through a structured decision protocol:
// the model answers with a JSON decision naming the next peer (or STOP),
// optional findings and task updates, and a response text. Tool calls are
// executed between model rounds and recorded in the handoff's tool trace.
package agent
