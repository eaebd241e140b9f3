package main

import "github.com/mind-engage/scorecheck/internal/cli"

func main() {
	cli.Execute()
}
