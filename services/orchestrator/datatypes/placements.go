// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the placement record admin types: the PATCH request
// body and the deadline parsing helpers shared with the CLI.
package datatypes

import (
	"fmt"
	"regexp"
	"time"
)

// deadlineLayout is the deadline format used by the placement tracker
// export, e.g. "15-Mar-26 23:59:00".
const deadlineLayout = "02-Jan-06 15:04:05"

// istZone is the fixed offset for Indian Standard Time. Tracker deadlines
// carry no zone information and are always IST.
var istZone = time.FixedZone("IST", 5*3600+1800)

// deadlineLinePattern matches the dated deadline marker embedded in a
// placement record's flattened text. Only the date is rewritten; any
// trailing text on the line (a time suffix, a timezone tag) is preserved.
var deadlineLinePattern = regexp.MustCompile(`Deadline: \d{4}-\d{2}-\d{2}`)

// UpdatePlacementRequest is the body of PATCH /v1/placements/:applicationId.
//
// # Description
//
// Fields are optional; only the ones present are applied. Deadline is the
// raw tracker string ("DD-Mon-YY HH:MM:SS", IST) and updates both the
// deadline_ms metadata and the Deadline line inside the record text.
type UpdatePlacementRequest struct {
	Text     string `json:"text,omitempty" validate:"omitempty,maxbytes"`
	Deadline string `json:"deadline,omitempty"`
	Company  string `json:"company,omitempty"`
}

// Validate checks field-level constraints on the update request.
func (r *UpdatePlacementRequest) Validate() error {
	if err := chatValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid placement update: %w", err)
	}
	if r.Text == "" && r.Deadline == "" && r.Company == "" {
		return fmt.Errorf("invalid placement update: no fields to apply")
	}
	return nil
}

// ParseDeadline converts a tracker deadline string to Unix milliseconds.
func ParseDeadline(s string) (int64, error) {
	t, err := time.ParseInLocation(deadlineLayout, s, istZone)
	if err != nil {
		return 0, fmt.Errorf("parse deadline %q: %w", s, err)
	}
	return t.UnixMilli(), nil
}

// RewriteDeadlineLine replaces the Deadline line in a record's flattened
// text with the new deadline, rendered as an ISO date in IST. Text without
// a deadline line is returned unchanged.
func RewriteDeadlineLine(text string, deadlineMs int64) string {
	date := time.UnixMilli(deadlineMs).In(istZone).Format("2006-01-02")
	return deadlineLinePattern.ReplaceAllString(text, "Deadline: "+date)
}

// PlacementSourceID returns the stable source id for an application.
func PlacementSourceID(applicationID string) string {
	return "placement-" + applicationID
}
