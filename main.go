package main

import "github.com/itsmostafa/goplot/cmd"

func main() {
	cmd.Execute()
}
