package main

import "github.com/m3rciful/voicequotes/internal/cli"

func main() {
	cli.Execute()
}
