// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"strings"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

// maxHistoryTurns limits how many prior turns are replayed to the model.
// The client resends the full visible history; anything older than this adds
// context cost without improving answers.
const maxHistoryTurns = 20

const systemPromptHeader = `You are the placement assistant for the BITSoM placement office. You help students with questions about placement drives, compensation, eligibility, interview processes, past interview experiences, placement statistics, and alumni career paths.

RULES:
1. Ground every answer in the context below. Cite the bracketed source ids when you use them.
2. If the context does not cover the question and no search results are available, say so plainly rather than guessing.
3. Never reveal another student's personal information beyond what the context states.
4. Keep answers concise and factual. Dates and deadlines must be quoted exactly as they appear in the context.

Context:
`

const emptyContextNote = `(no matching records were found in the placement knowledge base for this question)`

// BuildMessages assembles the model conversation for one chat turn: the
// grounded system prompt, the replayed history minus its final user turn,
// and the active question last.
//
// History beyond maxHistoryTurns user/assistant pairs is dropped oldest
// first.
func BuildMessages(contextText string, history []datatypes.Message, question string) []datatypes.Message {
	if contextText == "" {
		contextText = emptyContextNote
	}

	// Drop the active question from the replayed history; it is appended
	// separately so truncation can never remove it. The question is the
	// last user turn, which need not be the last element, so cut there
	// and discard anything after it.
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != datatypes.RoleUser {
			continue
		}
		if strings.TrimSpace(history[i].Content) == question {
			history = history[:i]
		}
		break
	}
	if len(history) > maxHistoryTurns*2 {
		history = history[len(history)-maxHistoryTurns*2:]
	}

	messages := make([]datatypes.Message, 0, len(history)+2)
	messages = append(messages, datatypes.Message{
		Role:    datatypes.RoleSystem,
		Content: systemPromptHeader + contextText,
	})
	messages = append(messages, history...)
	messages = append(messages, datatypes.Message{
		Role:    datatypes.RoleUser,
		Content: question,
	})
	return messages
}
