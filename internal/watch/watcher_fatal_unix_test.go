// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalFsnotifyError(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want bool
	}{
		"watch limit":           {err: syscall.ENOSPC, want: true},
		"process fd limit":      {err: syscall.EMFILE, want: true},
		"system fd limit":       {err: syscall.ENFILE, want: true},
		"wrapped watch limit":   {err: fmt.Errorf("fsnotify: %w", syscall.ENOSPC), want: true},
		"permission denied":     {err: syscall.EACCES, want: false},
		"unrelated plain error": {err: fmt.Errorf("queue overflow"), want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := isFatalFsnotifyError(tt.err); got != tt.want {
				t.Errorf("isFatalFsnotifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
