package main

import "github.com/MeKo-Tech/notepeel/cmd/notepeel/cmd"

func main() {
	cmd.Execute()
}
