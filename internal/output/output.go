// Package output renders a flattened digest as markdown, JSON or XML.
package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/flatten/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	xmlHeader = xml.Header

	digestTitle       = "# Codebase Flattened for Agentic Workflow"
	digestPreamble    = "This file contains the project's source code, optimized for token efficiency:"
	summaryHeading    = "## Project Summary"
	structureHeading  = "## Project Structure"
	sourceHeading     = "## Source Code"
	skippedHeading    = "## Skipped Files"
	sourcePreamble    = "Each file is demarcated by a header showing its relative path."
	sectionSeparator  = "--------------------"
	fileHeaderFormat  = "### File: %s"
	structureLanguage = "text"
	minimumFenceSize  = 3
	fenceCharacter    = "`"

	backtick = '`'
)

var digestNotes = []string{
	"Comments and docstrings have been removed",
	"Empty lines have been cleaned up",
	"Large files have been truncated",
	"Only relevant file types are included",
}

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Formats lists the accepted output formats.
func Formats() []string {
	return []string{types.FormatMarkdown, types.FormatJSON, types.FormatXML}
}

// BuildDigest assembles the renderable digest of a run.
func BuildDigest(root string, summary types.Summary, records []types.FileRecord, skipped []types.SkippedFile) types.Digest {
	rootName := filepath.Base(root)
	return types.Digest{
		Root:      root,
		Summary:   summary,
		Structure: BuildStructure(rootName, records),
		Files:     records,
		Skipped:   skipped,
	}
}

// Render dispatches to the renderer for format.
func Render(format string, digest types.Digest) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", types.FormatMarkdown:
		return RenderMarkdown(digest), nil
	case types.FormatJSON:
		return RenderJSON(digest)
	case types.FormatXML:
		return RenderXML(digest)
	default:
		return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnsupportedFormat, format, strings.Join(Formats(), ", "))
	}
}

// RenderMarkdown renders the digest as a markdown document.
func RenderMarkdown(digest types.Digest) string {
	var buffer bytes.Buffer

	buffer.WriteString(digestTitle + "\n\n")
	buffer.WriteString(digestPreamble + "\n")
	for _, note := range digestNotes {
		buffer.WriteString("- " + note + "\n")
	}
	buffer.WriteString("\n")

	buffer.WriteString(summaryHeading + "\n\n")
	writeSummaryList(&buffer, digest.Summary)

	buffer.WriteString("\n" + structureHeading + "\n\n")
	buffer.WriteString(strings.Repeat(fenceCharacter, minimumFenceSize) + structureLanguage + "\n")
	WriteStructure(&buffer, digest.Structure)
	buffer.WriteString(strings.Repeat(fenceCharacter, minimumFenceSize) + "\n")

	if len(digest.Skipped) > 0 {
		buffer.WriteString("\n" + skippedHeading + "\n\n")
		for _, skippedFile := range digest.Skipped {
			fmt.Fprintf(&buffer, "- %s (%s)\n", skippedFile.RelativePath, skippedFile.Reason)
		}
	}

	buffer.WriteString("\n" + sourceHeading + "\n\n")
	buffer.WriteString(sourcePreamble + "\n\n")
	buffer.WriteString(sectionSeparator + "\n\n")
	for index, record := range digest.Files {
		if index > 0 {
			buffer.WriteString("\n")
		}
		writeFileSection(&buffer, record)
	}
	return buffer.String()
}

func writeSummaryList(buffer *bytes.Buffer, summary types.Summary) {
	fmt.Fprintf(buffer, "- Total files processed: %d\n", summary.TotalFiles)
	fmt.Fprintf(buffer, "- Total lines of code: %d\n", summary.TotalLines)
	fmt.Fprintf(buffer, "- Estimated total tokens: %d\n", summary.TotalTokens)
	fmt.Fprintf(buffer, "- Total size: %s\n", summary.TotalSize)
	fmt.Fprintf(buffer, "- Truncated files: %d\n", summary.TruncatedFiles)
	fmt.Fprintf(buffer, "- Skipped files: %d\n", summary.SkippedFiles)
	if summary.Tokenizer != "" {
		fmt.Fprintf(buffer, "- Tokenizer: %s\n", summary.Tokenizer)
	}
}

func writeFileSection(buffer *bytes.Buffer, record types.FileRecord) {
	fence := codeFence(record.Content)
	fmt.Fprintf(buffer, fileHeaderFormat+"\n", record.RelativePath)
	buffer.WriteString(fence + record.Language + "\n")
	if record.Content != "" {
		buffer.WriteString(record.Content + "\n")
	}
	buffer.WriteString(fence + "\n")
}

// codeFence returns a backtick fence longer than any backtick run in content.
func codeFence(content string) string {
	longestRun, currentRun := 0, 0
	for _, character := range content {
		if character == backtick {
			currentRun++
			if currentRun > longestRun {
				longestRun = currentRun
			}
			continue
		}
		currentRun = 0
	}
	size := minimumFenceSize
	if longestRun >= size {
		size = longestRun + 1
	}
	return strings.Repeat(fenceCharacter, size)
}

// RenderJSON marshals the digest as indented JSON.
func RenderJSON(digest types.Digest) (string, error) {
	encoded, jsonEncodeError := json.MarshalIndent(digest, indentPrefix, indentSpacer)
	if jsonEncodeError != nil {
		return "", jsonEncodeError
	}
	return string(encoded) + "\n", nil
}

// RenderXML marshals the digest as an indented XML document.
func RenderXML(digest types.Digest) (string, error) {
	encoded, xmlMarshalError := xml.MarshalIndent(digest, indentPrefix, indentSpacer)
	if xmlMarshalError != nil {
		return "", xmlMarshalError
	}
	return xmlHeader + string(encoded) + "\n", nil
}

// FormatSummary formats a Summary as a single log-friendly line.
func FormatSummary(summary types.Summary) string {
	label := "files"
	if summary.TotalFiles == 1 {
		label = "file"
	}
	extra := ""
	if summary.TruncatedFiles > 0 {
		extra += fmt.Sprintf(", %d truncated", summary.TruncatedFiles)
	}
	if summary.SkippedFiles > 0 {
		extra += fmt.Sprintf(", %d skipped", summary.SkippedFiles)
	}
	return fmt.Sprintf("Summary: %d %s, %d lines, %d tokens, %s%s",
		summary.TotalFiles, label, summary.TotalLines, summary.TotalTokens, summary.TotalSize, extra)
}
