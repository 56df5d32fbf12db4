package main

import (
	pgrest "github.com/edgeflare/pgrest/cmd/pgrest"
)

func main() {
	pgrest.Main()
}
