// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rootCmd = &cobra.Command{
		Use:   "placecell",
		Short: "A CLI for the BITSoM placement assistant",
		Long: `placecell talks to the placement assistant service: ask questions
about drives, stats, interview experiences and alumni, ingest new
material, and administer placement records.`,
	}

	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the placement assistant a question",
		Long:  `Sends a question to the assistant, which grounds its answer in the placement corpus and cites its sources.`,
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand,
	}
	streamAnswer bool

	ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Load placement material into the vector store",
	}
	ingestTranscriptsCmd = &cobra.Command{
		Use:   "transcripts [directory]",
		Short: "Ingest interview transcript text files (Company_Person.txt)",
		Args:  cobra.ExactArgs(1),
		Run:   runIngestTranscripts,
	}
	ingestAlumniCmd = &cobra.Command{
		Use:   "alumni [csv file]",
		Short: "Ingest an alumni CSV export",
		Args:  cobra.ExactArgs(1),
		Run:   runIngestAlumni,
	}

	placementsCmd = &cobra.Command{
		Use:   "placements",
		Short: "Administer placement drive records",
	}
	placementsUpdateCmd = &cobra.Command{
		Use:   "update [applicationId]",
		Short: "Update a placement record's deadline, company, or text",
		Args:  cobra.ExactArgs(1),
		Run:   runPlacementsUpdate,
	}
	updateDeadline string
	updateCompany  string
	updateTextFile string

	namespaceCmd = &cobra.Command{
		Use:   "namespace",
		Short: "Administer retrieval namespaces",
	}
	namespacePurgeCmd = &cobra.Command{
		Use:   "purge [name]",
		Short: "DANGER: Delete every object in a namespace",
		Args:  cobra.ExactArgs(1),
		Run:   runNamespacePurge,
	}
	namespaceCountsCmd = &cobra.Command{
		Use:   "counts",
		Short: "Show object counts per namespace",
		Args:  cobra.NoArgs,
		Run:   runNamespaceCounts,
	}
)

func init() {
	askCmd.Flags().BoolVar(&streamAnswer, "stream", false, "Stream the answer token by token")

	placementsUpdateCmd.Flags().StringVar(&updateDeadline, "deadline", "", "New deadline, DD-Mon-YY HH:MM:SS in IST (e.g. 15-Sep-26 23:00:00)")
	placementsUpdateCmd.Flags().StringVar(&updateCompany, "company", "", "New company name")
	placementsUpdateCmd.Flags().StringVar(&updateTextFile, "text-file", "", "File whose contents replace the record text")

	namespacePurgeCmd.Flags().Bool("force", false, "Required to confirm the purge")

	ingestCmd.AddCommand(ingestTranscriptsCmd)
	ingestCmd.AddCommand(ingestAlumniCmd)
	placementsCmd.AddCommand(placementsUpdateCmd)
	namespaceCmd.AddCommand(namespacePurgeCmd)
	namespaceCmd.AddCommand(namespaceCountsCmd)

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(placementsCmd)
	rootCmd.AddCommand(namespaceCmd)
}

// getServerBaseURL resolves the assistant's base URL from PLACECELL_SERVER_URL.
func getServerBaseURL() string {
	v := viper.New()
	v.SetEnvPrefix("placecell")
	v.AutomaticEnv()
	v.SetDefault("server_url", "http://localhost:8080")
	return strings.TrimRight(v.GetString("server_url"), "/")
}
