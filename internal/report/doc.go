// Package report renders crawl results.
//
// Writers:
//   - SimpleWriter: human-readable text for the terminal
//   - JSONWriter and FullJSONWriter: structured output for other tools
//   - MarkdownWriter: a shareable document built with nao1215/markdown
//
// Every writer implements Writer, so the CLI picks one with New and treats
// them interchangeably. Report data lives in the model package.
package report
