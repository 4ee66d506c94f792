package main

import (
	"os"

	"recommendd/internal/recctl"
)

func main() {
	os.Exit(recctl.Main())
}
