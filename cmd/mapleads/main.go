package main

import "github.com/lead-makers/mapleads/internal/cli"

func main() {
	cli.Execute()
}
