// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// WriteFiles writes files, keyed by slash path relative to root, into fs.
// The test fails immediately if a write fails.
func WriteFiles(t testing.TB, fs billy.Filesystem, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := path.Join(root, name)
		if err := util.WriteFile(fs, p, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}
}

// ReadFile returns the content of p in fs.
// The test fails immediately if the file cannot be read.
func ReadFile(t testing.TB, fs billy.Filesystem, p string) string {
	t.Helper()
	data, err := util.ReadFile(fs, p)
	if err != nil {
		t.Fatalf("failed to read %s: %v", p, err)
	}
	return string(data)
}
