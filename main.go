package main

import "github.com/jake-scott/hass-ajax/cmd"

func main() {
	cmd.Execute()
}
