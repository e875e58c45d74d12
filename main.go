package main

import (
	"github.com/amorlias/storefront/cmd"
)

func main() {
	cmd.Start()
}
