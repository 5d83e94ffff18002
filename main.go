package main

import (
	cmd "github.com/memescout/memescout/internal/cli"
)

func main() {
	cmd.Execute()
}
