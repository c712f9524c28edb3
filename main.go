package main

import (
	"log"
	"os"
	"runtime/debug"

	"github.com/yegor-usoltsev/chownmap/internal/cli"
)

func main() {
	log.SetFlags(0)
	os.Exit(run(os.Args[1:])) //nolint:forbidigo
}

// run turns a panic anywhere below the CLI into exit status 1.
func run(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("chownmap: panic: %v\n%s", r, debug.Stack())
			code = 1
		}
	}()
	return cli.Run(args)
}
