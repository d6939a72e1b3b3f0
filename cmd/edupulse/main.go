package main

import "github.com/mchmarny/edupulse/pkg/cli"

func main() {
	cli.Execute()
}
