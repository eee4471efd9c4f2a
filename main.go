/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	// Report timestamps are rendered in IANA zones, which the container
	// images do not ship.
	_ "time/tzdata"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/cmd"
)

func main() {
	cmd.Execute()
}
