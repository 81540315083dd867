package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	discovery "github.com/kailas-cloud/discovery/pkg/sdk"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("32")).
			PaddingLeft(2).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("32"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// displayOrder keeps category sections stable across runs.
var displayOrder = []discovery.Category{
	discovery.Tools, discovery.Submissions, discovery.Tags, discovery.Users, discovery.Lists,
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "ok":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	case "degraded":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	}
}

func renderResponse(resp discovery.SearchResponse) string {
	var b strings.Builder
	for _, c := range displayOrder {
		p, ok := resp.Results[c]
		if !ok {
			continue
		}
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s  %d results, page %d/%d", c, p.TotalCount, p.Page, max(p.TotalPages, 1))))
		b.WriteString("\n")
		if len(p.Items) == 0 {
			b.WriteString(noDataStyle.Render("  no results"))
			b.WriteString("\n\n")
			continue
		}
		for i, it := range p.Items {
			b.WriteString(renderItem(i+1+(p.Page-1)*p.PerPage, it))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderItem(n int, it discovery.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d. %s", n, titleStyle.Render(it.Title))
	if meta := itemMeta(it); meta != "" {
		b.WriteString("  " + metaStyle.Render(meta))
	}
	b.WriteString("\n")
	if it.Description != "" {
		b.WriteString("     " + it.Description + "\n")
	}
	if it.URL != "" {
		b.WriteString("     " + urlStyle.Render(it.URL) + "\n")
	}
	if it.Enhanced() {
		text := it.Summary
		if it.RelevanceExplanation != "" {
			text = strings.TrimSpace(text + "\n" + it.RelevanceExplanation)
		}
		b.WriteString(indent(summaryStyle.Render(text), "     ") + "\n")
	}
	return b.String()
}

func itemMeta(it discovery.Item) string {
	var parts []string
	if it.Type != "" && it.Type != strings.TrimSuffix(string(it.Category), "s") {
		parts = append(parts, it.Type)
	}
	if it.Author != "" {
		parts = append(parts, "by "+it.Author)
	}
	if it.Owner != "" {
		parts = append(parts, "by "+it.Owner)
	}
	if len(it.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(it.Tags, " #"))
	}
	return strings.Join(parts, " · ")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
