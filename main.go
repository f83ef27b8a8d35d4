package main

import "github.com/stvsmth/sieve/cmd"

func main() {
	cmd.Execute()
}
