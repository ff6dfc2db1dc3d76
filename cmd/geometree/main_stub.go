//go:build !ebiten

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "The GUI build of geometree requires the ebiten build tag.")
	fmt.Fprintln(os.Stderr, "Re-run with `go run -tags ebiten ./cmd/geometree` or build with `-tags ebiten`.")
	fmt.Fprintln(os.Stderr, "For a headless server use ./cmd/fieldd.")
	os.Exit(2)
}
