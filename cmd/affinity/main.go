package main

import "github.com/smallbiznis/affinity/internal/cli"

func main() {
	cli.Execute()
}
