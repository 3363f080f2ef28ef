// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

func TestDeterministicUUID_Stable(t *testing.T) {
	a := DeterministicUUID("placement-APP-2026-001")
	b := DeterministicUUID("placement-APP-2026-001")
	c := DeterministicUUID("placement-APP-2026-002")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, string(a), 36)
}

// The store validates written properties against the class schema, so a
// number property fed a string rejects the whole object.
func TestPlacementProperties_NumberPropertiesCarryNumbers(t *testing.T) {
	schema := datatypes.SchemaForClass(datatypes.ClassPlacement)
	require.NotNil(t, schema)

	rec := PlacementRecord{
		ApplicationID: "APP-2026-001",
		Company:       "Bain",
		Text:          "Bain & Company consultant role. Deadline: 2025-11-28",
		DeadlineMs:    1764340200000,
	}
	stored := &StoredPlacement{
		ID:            "id",
		ApplicationID: rec.ApplicationID,
		Company:       rec.Company,
		Text:          rec.Text,
		DeadlineMs:    rec.DeadlineMs,
	}

	propsByPath := map[string]map[string]interface{}{
		"upsert": placementProperties(rec, datatypes.PlacementSourceID(rec.ApplicationID)),
		"merge":  placementMergeProperties(stored),
	}
	for path, props := range propsByPath {
		for _, p := range schema.Properties {
			value, ok := props[p.Name]
			if !ok {
				continue
			}
			require.Len(t, p.DataType, 1)
			switch p.DataType[0] {
			case "number", "int":
				switch value.(type) {
				case int, int64, float64:
				default:
					t.Errorf("%s: property %q is declared %s but written as %T",
						path, p.Name, p.DataType[0], value)
				}
			case "text", "string":
				assert.IsType(t, "", value, "%s: property %q", path, p.Name)
			}
		}
	}
	assert.IsType(t, int64(0), propsByPath["upsert"]["updated_at"])
	assert.IsType(t, int64(0), propsByPath["merge"]["updated_at"])
}

func TestParseTranscriptName(t *testing.T) {
	company, person, err := ParseTranscriptName("Bain_Priya_Sharma.txt")
	require.NoError(t, err)
	assert.Equal(t, "Bain", company)
	assert.Equal(t, "Priya Sharma", person)
}

func TestParseTranscriptName_RejectsMalformed(t *testing.T) {
	for _, name := range []string{"notes.txt", "Bain.txt", "_Priya.txt", ""} {
		_, _, err := ParseTranscriptName(name)
		assert.Error(t, err, "expected %q to be rejected", name)
	}
}

func TestParseAlumniCSV(t *testing.T) {
	input := strings.Join([]string{
		"name,batch,company,role,location",
		"Arjun Mehta,2021,Deloitte,Consultant,Mumbai",
		"Sneha Rao,2019,TCS,,",
		",2020,Acme,Analyst,Pune",
	}, "\n")

	records, err := ParseAlumniCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Arjun Mehta", records[0].Name)
	assert.Equal(t, "alumnus-arjun-mehta-2021", records[0].SourceID())
	assert.Contains(t, records[0].Text(), "Consultant at Deloitte")
	assert.Contains(t, records[0].Text(), "Based in Mumbai")

	assert.Equal(t, "Sneha Rao", records[1].Name)
	assert.Contains(t, records[1].Text(), "TCS")
	assert.NotContains(t, records[1].Text(), "Based in")
}

func TestParseAlumniCSV_ColumnOrderIndependent(t *testing.T) {
	input := "company,name,batch\nDeloitte,Arjun Mehta,2021\n"

	records, err := ParseAlumniCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Deloitte", records[0].Company)
	assert.Equal(t, "2021", records[0].Batch)
}

func TestParseAlumniCSV_MissingNameColumn(t *testing.T) {
	_, err := ParseAlumniCSV(strings.NewReader("batch,company\n2021,Deloitte\n"))
	assert.Error(t, err)
}
