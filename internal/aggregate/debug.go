// SPDX-License-Identifier: MPL-2.0

package aggregate

import (
	"bytes"
	"fmt"

	"github.com/invowk/areas/pkg/nspath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pelletier/go-toml/v2"
)

// debugSnapshot is one file of the debug folder.
type debugSnapshot struct {
	key     string
	comment string
	payload func(res *Result) any
}

var debugSnapshots = []debugSnapshot{
	{"areas", "the area tree scanned from the areas folder and the external areas", func(r *Result) any { return r.Areas }},
	{"routes", "the route definitions generated to extend the host routes", func(r *Result) any { return r.Routes }},
	{"stores", "the store definitions registered by the areas plugin", func(r *Result) any { return r.Stores }},
	{"alias", "the module resolution aliases added to the host", func(r *Result) any { return r.Aliases }},
	{"watch", "the files watched for changes in development mode", func(r *Result) any { return r.Watch }},
	{"options", "the final options used by the build", func(r *Result) any { return r.Options }},
}

// WriteDebug writes one TOML snapshot per build output into <base>/.debug
// and returns the number of files written. The folder carries a .gitignore
// that ignores everything in it.
func WriteDebug(fs billy.Filesystem, base string, res *Result) (int, error) {
	dir := nspath.Join(base, DebugFolder)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create debug folder: %w", err)
	}
	if err := util.WriteFile(fs, nspath.Join(dir, ".gitignore"), []byte("*"), 0o644); err != nil {
		return 0, fmt.Errorf("write debug .gitignore: %w", err)
	}

	for i, snap := range debugSnapshots {
		data, err := encodeSnapshot(snap, res)
		if err != nil {
			return i, err
		}
		if err := util.WriteFile(fs, nspath.Join(dir, snap.key+".toml"), data, 0o644); err != nil {
			return i, fmt.Errorf("write debug snapshot %s: %w", snap.key, err)
		}
	}
	return len(debugSnapshots), nil
}

func encodeSnapshot(snap debugSnapshot, res *Result) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", snap.comment)

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(map[string]any{snap.key: snap.payload(res)}); err != nil {
		return nil, fmt.Errorf("encode debug snapshot %s: %w", snap.key, err)
	}
	return buf.Bytes(), nil
}
