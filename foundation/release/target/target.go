// Package target maintains the set of build targets the release pipeline
// knows how to produce and the archive naming convention for each.
package target

import "fmt"

// Triple identifies the architecture, operating system and runtime ABI a
// build is produced for.
type Triple struct {
	Name    string // Full triple passed to the toolchain.
	Short   string // Shortened form used in archive names.
	Enabled bool   // Whether the pipeline will accept builds for it.
}

// The set of triples the pipeline knows about. The arm target exists for
// naming purposes but builds for it are rejected until the cross image
// for it is maintained again.
var (
	X8664LinuxGNU   = Triple{Name: "x86_64-unknown-linux-gnu", Short: "x86_64-linux-gnu", Enabled: true}
	Aarch64LinuxGNU = Triple{Name: "aarch64-unknown-linux-gnu", Short: "aarch64-linux-gnu", Enabled: false}
	Wasm32          = Triple{Name: "wasm32-unknown-unknown", Short: "wasm32", Enabled: true}
)

// triples indexes the known triples by their full name.
var triples = map[string]Triple{
	X8664LinuxGNU.Name:   X8664LinuxGNU,
	Aarch64LinuxGNU.Name: Aarch64LinuxGNU,
	Wasm32.Name:          Wasm32,
}

// Lookup returns the triple registered under the specified full name.
func Lookup(name string) (Triple, error) {
	t, exists := triples[name]
	if !exists {
		return Triple{}, fmt.Errorf("unknown target triple %q", name)
	}
	return t, nil
}

// ArchiveName returns the file name of the release archive for the specified
// inputs. The name is deterministic: the same release id, triple and version
// pins always produce the same name.
func ArchiveName(product string, releaseID string, t Triple, libcVersion string, toolchainLabel string) string {
	return fmt.Sprintf("%s-%s-%s-%s-%s.tar.bz2", product, releaseID, t.Short, libcVersion, toolchainLabel)
}
