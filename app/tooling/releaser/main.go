// This program drives the MathChain release pipeline: toolchain
// provisioning, cross compilation, packaging and checksum generation.
package main

import "github.com/mathchain/releaser/app/tooling/releaser/cmd"

func main() {
	cmd.Execute()
}
