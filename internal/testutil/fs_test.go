// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
)

func TestWriteAndReadFiles(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	WriteFiles(t, fs, "/project", map[string]string{
		"areas/blog/pages/index.vue": "<template/>",
		"areas/blog/store/index.js":  "export const state = () => ({})",
	})

	if got := ReadFile(t, fs, "/project/areas/blog/pages/index.vue"); got != "<template/>" {
		t.Errorf("ReadFile() = %q, want <template/>", got)
	}
	if _, err := fs.Stat("/project/areas/blog/store"); err != nil {
		t.Errorf("parent folder not created: %v", err)
	}
}
