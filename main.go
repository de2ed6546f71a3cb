package main

import (
	"flag"
	"fmt"
	"os"

	"LogDB/bootstrap"
)

func main() {
	flag.Parse()
	if _, err := bootstrap.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "logdb:", err)
		os.Exit(1)
	}
}
