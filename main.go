package main

import "github.com/gaurav-prasanna/codecapsule/cmd"

func main() {
	cmd.Execute()
}
