// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_AssemblesAnswer(t *testing.T) {
	stream := strings.Join([]string{
		`0:{"type":"text-start","id":"t1","createdAt":1}`,
		`0:{"type":"text-delta","id":"t1","delta":"Deloitte visits ","createdAt":2}`,
		`0:{"type":"text-delta","id":"t1","delta":"in October.","createdAt":3}`,
		`0:{"type":"sources","sources":[{"namespace":"placements","source":"placement-APP-1","score":0.9}],"createdAt":4}`,
		`0:{"type":"finish","finishReason":"stop","createdAt":5}`,
	}, "\n")

	var out bytes.Buffer
	result, err := NewStreamProcessorWithWriter(&out).Process(strings.NewReader(stream))
	require.NoError(t, err)

	assert.Equal(t, "Deloitte visits in October.", result.Answer)
	assert.Equal(t, "stop", result.FinishReason)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "placement-APP-1", result.Sources[0].Source)
	assert.Contains(t, out.String(), "Deloitte visits in October.")
}

func TestProcess_SkipsMalformedLines(t *testing.T) {
	stream := strings.Join([]string{
		`0:{"type":"text-delta","id":"t1","delta":"hello"`,
		`garbage without prefix`,
		`0:{"type":"text-delta","id":"t1","delta":"hi","createdAt":1}`,
		`0:{"type":"finish","finishReason":"stop","createdAt":2}`,
	}, "\n")

	var out bytes.Buffer
	result, err := NewStreamProcessorWithWriter(&out).Process(strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Answer)
}

func TestProcess_ModeratedRefusal(t *testing.T) {
	stream := strings.Join([]string{
		`0:{"type":"message","message":"I can't help with that request.","createdAt":1}`,
		`0:{"type":"finish","finishReason":"moderated","createdAt":2}`,
	}, "\n")

	var out bytes.Buffer
	result, err := NewStreamProcessorWithWriter(&out).Process(strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, "moderated", result.FinishReason)
	assert.Contains(t, result.Answer, "can't help")
}

func TestProcess_ErrorFrame(t *testing.T) {
	stream := `0:{"type":"error","error":"An error occurred while processing your request","createdAt":1}`

	var out bytes.Buffer
	_, err := NewStreamProcessorWithWriter(&out).Process(strings.NewReader(stream))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "An error occurred")
}

func TestProcess_EndWithoutFinish(t *testing.T) {
	stream := `0:{"type":"text-delta","id":"t1","delta":"partial","createdAt":1}`

	var out bytes.Buffer
	result, err := NewStreamProcessorWithWriter(&out).Process(strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, "partial", result.Answer)
	assert.Empty(t, result.FinishReason)
}
