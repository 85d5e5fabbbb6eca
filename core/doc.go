// Package core defines the fundamental types shared across HealthMesh: the
// per-session Context that agents read and mutate, the Message and Handoff
// data contracts, the Agent interface, the streaming Event model and the
// error taxonomy of the dispatch loop.
package core
