package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCMD().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "chromaseek:", err)
		os.Exit(1)
	}
}
