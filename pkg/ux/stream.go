// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux renders server responses for the command line client.
package ux

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

// StreamResult is the assembled outcome of one streamed chat turn.
type StreamResult struct {
	Answer       string
	Sources      []datatypes.SourceInfo
	FinishReason string
}

// StreamProcessor consumes a line-framed chat stream.
type StreamProcessor interface {
	// StartWaiting shows a spinner on stderr until the first token lands.
	StartWaiting(message string)

	// Process reads the stream to completion, printing deltas as they
	// arrive, and returns the assembled result.
	Process(reader io.Reader) (*StreamResult, error)
}

type lineStreamProcessor struct {
	writer  io.Writer
	spinner *Spinner
	answer  strings.Builder
	sources []datatypes.SourceInfo
}

// NewStreamProcessor creates a processor that prints to stdout.
func NewStreamProcessor() StreamProcessor {
	return &lineStreamProcessor{writer: os.Stdout}
}

// NewStreamProcessorWithWriter creates a processor with a custom writer.
func NewStreamProcessorWithWriter(w io.Writer) StreamProcessor {
	return &lineStreamProcessor{writer: w}
}

// Process reads "0:<json>" lines until the stream ends. Lines that do not
// parse are skipped; a partial network read must not kill the whole turn.
func (p *lineStreamProcessor) Process(reader io.Reader) (*StreamResult, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "0:") {
			continue
		}

		var frame datatypes.StreamFrame
		if err := json.Unmarshal([]byte(line[2:]), &frame); err != nil {
			continue
		}

		switch frame.Type {
		case datatypes.FramePing:
			// keepalive

		case datatypes.FrameSources:
			p.sources = frame.Sources

		case datatypes.FrameTextStart:
			p.stopSpinner()

		case datatypes.FrameTextDelta:
			p.stopSpinner()
			p.answer.WriteString(frame.Delta)
			fmt.Fprint(p.writer, frame.Delta)

		case datatypes.FrameMessage:
			p.stopSpinner()
			p.answer.WriteString(frame.Message)
			fmt.Fprint(p.writer, frame.Message)

		case datatypes.FrameFinish:
			p.finalize()
			return &StreamResult{
				Answer:       p.answer.String(),
				Sources:      p.sources,
				FinishReason: frame.FinishReason,
			}, nil

		case datatypes.FrameError:
			p.finalize()
			return nil, fmt.Errorf("%s", frame.Error)
		}
	}
	if err := scanner.Err(); err != nil {
		p.finalize()
		return nil, err
	}

	// Stream ended without a finish frame.
	p.finalize()
	return &StreamResult{
		Answer:  p.answer.String(),
		Sources: p.sources,
	}, nil
}

// StartWaiting shows a spinner until the first answer text arrives.
func (p *lineStreamProcessor) StartWaiting(message string) {
	if p.spinner == nil {
		p.spinner = NewSpinner(message)
		p.spinner.Start()
	}
}

func (p *lineStreamProcessor) stopSpinner() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}

func (p *lineStreamProcessor) finalize() {
	p.stopSpinner()
	if p.answer.Len() > 0 && !strings.HasSuffix(p.answer.String(), "\n") {
		fmt.Fprintln(p.writer)
	}
}

// PrintSources lists cited sources under the answer.
func PrintSources(w io.Writer, sources []datatypes.SourceInfo) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for _, s := range sources {
		fmt.Fprintf(w, "  [%s] %s (score %.2f)\n", s.Namespace, s.Source, s.Score)
	}
}
