// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/areas/cmd/areas"

func main() {
	cmd.Execute()
}
