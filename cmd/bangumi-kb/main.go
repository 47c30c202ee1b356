// Command bangumi-kb builds a Markdown knowledge base from the Bangumi
// subject catalog in two steps: collect writes the JSON knowledge base,
// format renders it as Markdown.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
