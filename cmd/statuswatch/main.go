package main

import "github.com/vietddude/statuswatch/internal/cli"

func main() {
	cli.Execute()
}
