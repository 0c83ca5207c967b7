package main

import "github.com/gradient-bang/server/internal/adapters/cli"

func main() {
	cli.Execute()
}
