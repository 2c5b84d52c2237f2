package tts

// NewPollyWithClient exposes the client-injecting constructor to tests.
var NewPollyWithClient = newPollyWithClient

// WrapProsody exposes the SSML wrapper to tests.
var WrapProsody = wrapProsody

// SplitSSML exposes the markup-preserving splitter to tests.
var SplitSSML = splitSSML

// StripSpeakEnvelope exposes the envelope stripper to tests.
var StripSpeakEnvelope = stripSpeakEnvelope
