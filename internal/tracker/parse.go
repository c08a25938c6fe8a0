// Package tracker reads the team's markdown tracker table and proposals
// document and mirrors their records into the tasks and improvements tables.
//
// The parsing contract is deliberately narrow: the tracker header row must
// read exactly "| ID | Task | Owner | Status | Priority |" and proposals must
// be "## <emoji> Proposal: <title>" headings. Anything else is ignored.
package tracker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/maheshrc27/mission-control/internal/models"
)

var (
	trackerHeader  = regexp.MustCompile(`^\|\s*ID\s*\|\s*Task\s*\|\s*Owner\s*\|\s*Status\s*\|\s*Priority\s*\|\s*$`)
	tableSeparator = regexp.MustCompile(`^\|[\s:|-]+\|\s*$`)
	proposalHead   = regexp.MustCompile(`^##\s+(💡|🔧|🚀|⚡)\x{FE0F}?\s*Proposal:\s*(.+?)\s*$`)
	impactLine     = regexp.MustCompile(`^\*\*Impact:\*\*\s*(.*)$`)
	agentLine      = regexp.MustCompile(`^\*\*Agent:\*\*\s*(.*)$`)
)

var statusMarkers = []struct {
	marker string
	status string
}{
	{"✅", models.TaskStatusDone},
	{"🟡", models.TaskStatusInProgress},
	{"⏳", models.TaskStatusNeedsApproval},
	{"🔴", models.TaskStatusBlocked},
	{"⬜", models.TaskStatusTodo},
}

var proposalCategories = map[string]string{
	"💡": "idea",
	"🔧": "fix",
	"🚀": "feature",
	"⚡": "performance",
}

type TaskRecord struct {
	Ref      string
	Title    string
	Owner    string
	Status   string
	Priority string
	Line     int
}

type ProposalRecord struct {
	Ref         string
	Title       string
	Category    string
	Impact      string
	Agent       string
	Description string
}

// SkippedLine is a table row that could not be read.
type SkippedLine struct {
	Line   int
	Text   string
	Reason string
}

// ParseTracker reads every row of the tracker table. Rows that do not have
// exactly five cells or carry an unknown status are returned as skipped.
func ParseTracker(markdown string) ([]TaskRecord, []SkippedLine) {
	var (
		records []TaskRecord
		skipped []SkippedLine
		inTable bool
	)

	for i, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)
		lineNo := i + 1

		if !inTable {
			inTable = trackerHeader.MatchString(line)
			continue
		}
		if !strings.HasPrefix(line, "|") {
			inTable = false
			continue
		}
		if tableSeparator.MatchString(line) {
			continue
		}

		cells := splitRow(line)
		if len(cells) != 5 {
			skipped = append(skipped, SkippedLine{Line: lineNo, Text: line, Reason: "expected 5 cells"})
			continue
		}
		if cells[0] == "" || cells[1] == "" {
			skipped = append(skipped, SkippedLine{Line: lineNo, Text: line, Reason: "missing id or task"})
			continue
		}

		status, ok := taskStatus(cells[3])
		if !ok {
			skipped = append(skipped, SkippedLine{Line: lineNo, Text: line, Reason: "unknown status " + cells[3]})
			continue
		}

		records = append(records, TaskRecord{
			Ref:      "tracker:" + cells[0],
			Title:    cells[1],
			Owner:    cleanOwner(cells[2]),
			Status:   status,
			Priority: priority(cells[4]),
			Line:     lineNo,
		})
	}
	return records, skipped
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func taskStatus(cell string) (string, bool) {
	for _, m := range statusMarkers {
		if strings.HasPrefix(cell, m.marker) {
			return m.status, true
		}
	}
	return "", false
}

func cleanOwner(cell string) string {
	switch cell {
	case "", "-", "—", "n/a":
		return ""
	}
	return strings.TrimPrefix(cell, "@")
}

func priority(cell string) string {
	p := strings.ToLower(strings.TrimSpace(cell))
	if p == "" {
		return "medium"
	}
	return p
}

// ParseProposals reads every proposal section. A section runs until the next
// second-level heading.
func ParseProposals(markdown string) []ProposalRecord {
	var (
		records []ProposalRecord
		current *ProposalRecord
		body    []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(strings.Join(body, "\n"))
		records = append(records, *current)
		current, body = nil, nil
	}

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)

		if m := proposalHead.FindStringSubmatch(trimmed); m != nil {
			flush()
			current = &ProposalRecord{
				Ref:      "proposal:" + Slugify(m[2]),
				Title:    m[2],
				Category: proposalCategories[m[1]],
			}
			continue
		}
		if strings.HasPrefix(trimmed, "## ") || strings.HasPrefix(trimmed, "# ") {
			flush()
			continue
		}
		if current == nil {
			continue
		}

		if m := impactLine.FindStringSubmatch(trimmed); m != nil {
			current.Impact = strings.TrimSpace(m[1])
			continue
		}
		if m := agentLine.FindStringSubmatch(trimmed); m != nil {
			current.Agent = strings.TrimPrefix(strings.TrimSpace(m[1]), "@")
			continue
		}
		body = append(body, line)
	}
	flush()
	return records
}

// Slugify lowercases s and joins its letters and digits with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
