// Package message defines the delivery protocol's wire unit: a tagged
// envelope carrying a correlation token, the emitting stage's name, and a
// result value, log text, or end-of-input marker.
//
// Envelopes are deliberately dumb. Classification (which pipeline owns this
// envelope) happens in the sink package by token; routing (which node gets
// an input item) happens outside this module entirely. The envelope only
// guarantees that the two can be told apart.
package message
