package main

import (
	"skillbox/cmd/skillbox/cmd"
	"skillbox/internal/components/chrono"
)

func main() {
	cmd.Execute(chrono.NewStandardTime())
}
