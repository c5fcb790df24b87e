// SPDX-License-Identifier: MPL-2.0

package main

import cmd "cfxforge-cli/cmd/cfxforge"

func main() {
	cmd.Execute()
}
