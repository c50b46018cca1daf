package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yungbote/apl-daily-backend/internal/domain"
)

var (
	fileNameRe = regexp.MustCompile(`^(.+?)\s*\((\d+)\)\.md$`)
	sectionRe  = regexp.MustCompile(`(?m)^###\s+(.+?)\s*$`)
)

// ParseMarkdown parses one pattern source file. The file name carries the
// title and number ("House Cluster (37).md"); the body carries "### Problem",
// "### Solution" and optionally "### Related Patterns" sections.
func ParseMarkdown(fileName, content string) (domain.Pattern, error) {
	m := fileNameRe.FindStringSubmatch(filepath.Base(fileName))
	if m == nil {
		return domain.Pattern{}, fmt.Errorf("invalid pattern file name %q", fileName)
	}
	id, err := strconv.Atoi(m[2])
	if err != nil {
		return domain.Pattern{}, fmt.Errorf("invalid pattern number in %q: %w", fileName, err)
	}

	sections := splitSections(content)
	problem, solution := sections["problem"], sections["solution"]
	if problem == "" || solution == "" {
		return domain.Pattern{}, fmt.Errorf("%s: missing Problem or Solution section", fileName)
	}

	title := strings.TrimSpace(m[1])
	return domain.Pattern{
		ID:              id,
		Title:           title,
		Problem:         problem,
		Solution:        solution,
		RelatedPatterns: sections["related patterns"],
		ImagePrompt:     DefaultImagePrompt(title, problem),
	}, nil
}

func splitSections(content string) map[string]string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	out := map[string]string{}
	locs := sectionRe.FindAllStringSubmatchIndex(content, -1)
	for i, loc := range locs {
		name := strings.ToLower(strings.TrimSpace(content[loc[2]:loc[3]]))
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out[name] = cleanText(content[loc[1]:end])
	}
	return out
}

// cleanText drops blockquote markers and blank lines.
func cleanText(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), ">"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// ParseDir parses every *.md file in dir. Files that fail to parse are
// returned in skipped rather than aborting the import.
func ParseDir(dir string) (patterns []domain.Pattern, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	skipped = map[string]error{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			skipped[e.Name()] = err
			continue
		}
		p, err := ParseMarkdown(e.Name(), string(raw))
		if err != nil {
			skipped[e.Name()] = err
			continue
		}
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ID < patterns[j].ID })
	return patterns, skipped, nil
}
