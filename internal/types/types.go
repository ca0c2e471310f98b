// Package types defines every cross-package data structure used by the flatten CLI.
package types

import "encoding/xml"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatXML      = "xml"
)

// Skip reasons recorded for files that produced no FileRecord.
const (
	SkipReasonTooLarge   = "exceeds size limit"
	SkipReasonBinary     = "binary or non-UTF-8 content"
	SkipReasonUnreadable = "unreadable"
)

// FileRecord describes one flattened file. Content holds the cleaned and
// possibly truncated text that EstimatedTokens and LineCount were measured on.
type FileRecord struct {
	RelativePath    string `json:"path" xml:"path"`
	Language        string `json:"language" xml:"language"`
	SizeBytes       int64  `json:"sizeBytes" xml:"sizeBytes"`
	LineCount       int    `json:"lines" xml:"lines"`
	EstimatedTokens int    `json:"tokens" xml:"tokens"`
	Truncated       bool   `json:"truncated,omitempty" xml:"truncated,omitempty"`
	Content         string `json:"content" xml:"content"`
}

// SkippedFile records a file that was considered but not flattened.
type SkippedFile struct {
	RelativePath string `json:"path" xml:"path"`
	Reason       string `json:"reason" xml:"reason"`
	SizeBytes    int64  `json:"sizeBytes,omitempty" xml:"sizeBytes,omitempty"`
}

// Summary aggregates the statistics of a run.
type Summary struct {
	TotalFiles     int    `json:"totalFiles" xml:"totalFiles"`
	TotalLines     int    `json:"totalLines" xml:"totalLines"`
	TotalTokens    int    `json:"totalTokens" xml:"totalTokens"`
	TotalSizeBytes int64  `json:"totalSizeBytes" xml:"totalSizeBytes"`
	TotalSize      string `json:"totalSize" xml:"totalSize"`
	TruncatedFiles int    `json:"truncatedFiles" xml:"truncatedFiles"`
	SkippedFiles   int    `json:"skippedFiles" xml:"skippedFiles"`
	Tokenizer      string `json:"tokenizer,omitempty" xml:"tokenizer,omitempty"`
}

// TreeOutputNode is one node of the project structure built from FileRecords.
type TreeOutputNode struct {
	XMLName   xml.Name          `json:"-" xml:"node"`
	Path      string            `json:"path" xml:"path"`
	Name      string            `json:"name" xml:"name"`
	Type      string            `json:"type" xml:"type"`
	LineCount int               `json:"lines,omitempty" xml:"lines,omitempty"`
	Tokens    int               `json:"tokens,omitempty" xml:"tokens,omitempty"`
	Children  []*TreeOutputNode `json:"children,omitempty" xml:"children>node,omitempty"`
}

// Digest is the complete rendered artefact of a run.
type Digest struct {
	XMLName   xml.Name        `json:"-" xml:"digest"`
	Root      string          `json:"root" xml:"root,attr"`
	Summary   Summary         `json:"summary" xml:"summary"`
	Structure *TreeOutputNode `json:"structure" xml:"structure>node"`
	Files     []FileRecord    `json:"files" xml:"files>file"`
	Skipped   []SkippedFile   `json:"skipped,omitempty" xml:"skipped>file,omitempty"`
}
