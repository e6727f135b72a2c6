package main

import "github.com/sbl8/ssbctf/internal/cli"

func main() {
	cli.Execute()
}
