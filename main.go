package main

import (
	"github.com/ch1tg/GameTrackr-api/cmd"
)

func main() {
	cmd.Execute()
}
