// SPDX-License-Identifier: MIT
package main

import "github.com/skaphos/devenv/cmd/devenv"

var execute = devenv.Execute

func main() {
	execute()
}
