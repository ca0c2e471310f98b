package output

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/temirov/flatten/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	directorySuffix    = "/"
	fileStatisticsLine = "%s%s (%d lines, ~%d tokens)\n"
)

// BuildStructure arranges records, whose paths are relative to the root,
// into a directory tree named rootName. Directories are created on demand and
// children are ordered directories first, then by name.
func BuildStructure(rootName string, records []types.FileRecord) *types.TreeOutputNode {
	rootNode := &types.TreeOutputNode{
		Path: ".",
		Name: rootName,
		Type: types.NodeTypeDirectory,
	}
	nodeByPath := map[string]*types.TreeOutputNode{".": rootNode}
	for _, record := range records {
		parentNode := ensureDirectories(nodeByPath, path.Dir(record.RelativePath))
		parentNode.Children = append(parentNode.Children, &types.TreeOutputNode{
			Path:      record.RelativePath,
			Name:      path.Base(record.RelativePath),
			Type:      types.NodeTypeFile,
			LineCount: record.LineCount,
			Tokens:    record.EstimatedTokens,
		})
	}
	sortTreeChildren(rootNode)
	populateDirectoryTotals(rootNode)
	return rootNode
}

func ensureDirectories(nodeByPath map[string]*types.TreeOutputNode, directoryPath string) *types.TreeOutputNode {
	if existing, exists := nodeByPath[directoryPath]; exists {
		return existing
	}
	parentNode := ensureDirectories(nodeByPath, path.Dir(directoryPath))
	node := &types.TreeOutputNode{
		Path: directoryPath,
		Name: path.Base(directoryPath),
		Type: types.NodeTypeDirectory,
	}
	parentNode.Children = append(parentNode.Children, node)
	nodeByPath[directoryPath] = node
	return node
}

func sortTreeChildren(node *types.TreeOutputNode) {
	sort.SliceStable(node.Children, func(left, right int) bool {
		leftIsDirectory := node.Children[left].Type == types.NodeTypeDirectory
		rightIsDirectory := node.Children[right].Type == types.NodeTypeDirectory
		if leftIsDirectory != rightIsDirectory {
			return leftIsDirectory
		}
		return node.Children[left].Name < node.Children[right].Name
	})
	for _, child := range node.Children {
		sortTreeChildren(child)
	}
}

func populateDirectoryTotals(node *types.TreeOutputNode) (int, int) {
	if node.Type == types.NodeTypeFile {
		return node.LineCount, node.Tokens
	}
	var totalLines, totalTokens int
	for _, child := range node.Children {
		childLines, childTokens := populateDirectoryTotals(child)
		totalLines += childLines
		totalTokens += childTokens
	}
	node.LineCount = totalLines
	node.Tokens = totalTokens
	return totalLines, totalTokens
}

// WriteStructure renders the tree with box-drawing connectors. Files carry
// their line and token statistics.
func WriteStructure(writer io.Writer, node *types.TreeOutputNode) {
	if node == nil {
		return
	}
	renderTreeNode(writer, node, "", true, true)
}

func treeNodeLinePrefix(prefix string, isRoot bool, isLast bool) (string, string) {
	if isRoot {
		return "", ""
	}
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

func renderTreeNode(writer io.Writer, node *types.TreeOutputNode, prefix string, isRoot bool, isLast bool) {
	linePrefix, childPrefix := treeNodeLinePrefix(prefix, isRoot, isLast)
	if node.Type == types.NodeTypeFile {
		fmt.Fprintf(writer, fileStatisticsLine, linePrefix, node.Name, node.LineCount, node.Tokens)
		return
	}
	fmt.Fprintf(writer, "%s%s%s\n", linePrefix, strings.TrimSuffix(node.Name, directorySuffix), directorySuffix)
	for index, child := range node.Children {
		if child == nil {
			continue
		}
		renderTreeNode(writer, child, childPrefix, false, index == len(node.Children)-1)
	}
}
