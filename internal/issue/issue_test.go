// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestValuesCoverEveryId(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != int(WatchFailedId) {
		t.Fatalf("Values() = %d issues, want %d", len(values), WatchFailedId)
	}
	for i, issue := range values {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), i+1)
		}
		if strings.TrimSpace(string(issue.MarkdownMsg())) == "" {
			t.Errorf("issue %d has no message", issue.Id())
		}
	}
}

func TestIssue_Markdown(t *testing.T) {
	t.Parallel()

	issue := Get(WatchFailedId)
	if issue == nil {
		t.Fatal("Get(WatchFailedId) returned nil")
	}
	md := issue.Markdown()
	if !strings.Contains(md, "## See also") || !strings.Contains(md, "fsnotify") {
		t.Errorf("Markdown() = %s", md)
	}

	links := issue.ExtLinks()
	links[0] = "changed"
	if issue.ExtLinks()[0] == "changed" {
		t.Error("ExtLinks() should return a copy")
	}

	if md := Get(ProjectRootNotFoundId).Markdown(); strings.Contains(md, "See also") {
		t.Errorf("issue without links rendered a See also section: %s", md)
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	out, err := Get(ConfigLoadFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "areas config show") {
		t.Errorf("Render() output missing command:\n%s", out)
	}
}

func TestGetUnknown(t *testing.T) {
	t.Parallel()

	if Get(0) != nil || Get(WatchFailedId+1) != nil {
		t.Error("Get() should return nil for unknown ids")
	}
}
