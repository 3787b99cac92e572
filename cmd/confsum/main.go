package main

import "github.com/aleka07/conferencess-summary-maker/internal/cli"

func main() {
	cli.Main()
}
