package issues

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dukerupert/chorejar/internal/model"
)

const (
	TypeBug     = "bug"
	TypeFeature = "feature"
)

// Report is a user-submitted bug report or feature request.
type Report struct {
	IssueType        string        `json:"issueType"`
	Category         string        `json:"category"`
	Description      string        `json:"description"`
	StepsToReproduce string        `json:"stepsToReproduce,omitempty"`
	ExpectedBehavior string        `json:"expectedBehavior,omitempty"`
	ActualBehavior   string        `json:"actualBehavior,omitempty"`
	Screenshot       string        `json:"screenshot,omitempty"`
	TechnicalInfo    TechnicalInfo `json:"technicalInfo"`
}

// TechnicalInfo is collected by the UI when the report is filed.
type TechnicalInfo struct {
	Timestamp   string `json:"timestamp"`
	UserAgent   string `json:"userAgent"`
	URL         string `json:"url"`
	Resolution  string `json:"resolution"`
	AppVersion  string `json:"appVersion"`
	BuildNumber string `json:"buildNumber"`
}

// Result is returned to the UI once the issue exists.
type Result struct {
	Success     bool   `json:"success"`
	IssueNumber int    `json:"issueNumber"`
	URL         string `json:"url"`
}

func (r *Report) Validate() error {
	if r.IssueType == "" || r.Category == "" || r.Description == "" {
		return &model.ValidationError{Field: "report", Message: "missing required fields: issueType, category, description"}
	}
	if r.IssueType != TypeBug && r.IssueType != TypeFeature {
		return &model.ValidationError{Field: "issueType", Message: `must be "bug" or "feature"`}
	}
	return nil
}

func (r *Report) isBug() bool {
	return r.IssueType == TypeBug
}

var whitespace = regexp.MustCompile(`\s+`)

// Labels returns the issue labels: user-submitted, the type label and the
// category slug.
func (r *Report) Labels() []string {
	kind := "enhancement"
	if r.isBug() {
		kind = "bug"
	}
	return []string{
		"user-submitted",
		kind,
		whitespace.ReplaceAllString(strings.ToLower(r.Category), "-"),
	}
}

// Title truncates descriptions longer than 60 characters to 57 plus "...".
func (r *Report) Title() string {
	prefix := "Feature"
	if r.isBug() {
		prefix = "Bug"
	}
	desc := r.Description
	if runes := []rune(desc); len(runes) > 60 {
		desc = string(runes[:57]) + "..."
	}
	return fmt.Sprintf("[User Report] %s: %s", prefix, desc)
}

// Body renders the issue description in markdown. The reproduction sections
// only appear on bug reports.
func (r *Report) Body() string {
	var b strings.Builder
	heading := "Feature Request"
	if r.isBug() {
		heading = "Bug Report"
	}
	fmt.Fprintf(&b, "## %s\n\n", heading)
	fmt.Fprintf(&b, "**Category**: %s\n\n", r.Category)
	fmt.Fprintf(&b, "**Description**:\n%s\n\n", r.Description)

	if r.isBug() {
		if r.StepsToReproduce != "" {
			fmt.Fprintf(&b, "**Steps to Reproduce**:\n%s\n\n", r.StepsToReproduce)
		}
		if r.ExpectedBehavior != "" {
			fmt.Fprintf(&b, "**Expected Behavior**:\n%s\n\n", r.ExpectedBehavior)
		}
		if r.ActualBehavior != "" {
			fmt.Fprintf(&b, "**Actual Behavior**:\n%s\n\n", r.ActualBehavior)
		}
	}

	ti := r.TechnicalInfo
	b.WriteString("---\n\n")
	b.WriteString("**Technical Information**:\n")
	fmt.Fprintf(&b, "- **Timestamp**: %s\n", ti.Timestamp)
	fmt.Fprintf(&b, "- **URL**: %s\n", ti.URL)
	fmt.Fprintf(&b, "- **Browser**: %s\n", ti.UserAgent)
	fmt.Fprintf(&b, "- **Resolution**: %s\n", ti.Resolution)
	fmt.Fprintf(&b, "- **App Version**: %s\n", ti.AppVersion)
	fmt.Fprintf(&b, "- **Build**: %s\n", ti.BuildNumber)
	return b.String()
}

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// screenshotData returns the base64 payload of a data:image URL, or "" when
// the report carries no usable screenshot.
func (r *Report) screenshotData() string {
	if !strings.HasPrefix(r.Screenshot, "data:image") {
		return ""
	}
	return dataURLPrefix.ReplaceAllString(r.Screenshot, "")
}
