package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/reshader/cmd/reshader"
	"github.com/spf13/cobra/doc"
)

func main() {
	if err := doc.GenMan(reshader.NewRootCmd(), reshader.ManHeader(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
