// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the chat stream wire protocol. Every frame is one line
// of the form "0:<json>\n"; clients parse each line independently and skip
// lines they cannot parse, so new frame types are backward compatible.
package datatypes

// FrameType discriminates stream frames.
type FrameType string

const (
	// FrameTextStart opens a text block. Sent once before the first delta.
	FrameTextStart FrameType = "text-start"

	// FrameTextDelta carries one chunk of answer text.
	FrameTextDelta FrameType = "text-delta"

	// FrameSources carries the source attributions for the answer.
	FrameSources FrameType = "sources"

	// FrameMessage carries a complete standalone message, used for
	// refusals and other short-circuit responses.
	FrameMessage FrameType = "message"

	// FrameFinish closes the stream after a completed turn.
	FrameFinish FrameType = "finish"

	// FrameError closes the stream after a failure. Error text is
	// sanitized before it reaches the client.
	FrameError FrameType = "error"

	// FramePing is a keepalive. Clients ignore it.
	FramePing FrameType = "ping"
)

// Finish reasons reported on FrameFinish.
const (
	FinishReasonStop      = "stop"
	FinishReasonModerated = "moderated"
)

// StreamFrame is one frame of the chat stream.
type StreamFrame struct {
	Type FrameType `json:"type"`

	// Id identifies the frame; deltas share the id of their text-start.
	Id string `json:"id,omitempty"`

	// CreatedAt is the server send time in Unix milliseconds.
	CreatedAt int64 `json:"createdAt,omitempty"`

	// Delta is the text chunk for text-delta frames.
	Delta string `json:"delta,omitempty"`

	// Message is the body of message frames.
	Message string `json:"message,omitempty"`

	// Sources is populated on sources frames.
	Sources []SourceInfo `json:"sources,omitempty"`

	// Error is populated on error frames.
	Error string `json:"error,omitempty"`

	// FinishReason is populated on finish frames.
	FinishReason string `json:"finishReason,omitempty"`
}
