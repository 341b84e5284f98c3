// Command dealdb applies SQL migrations to the deal finder database.
package main

import "github.com/aqasim81/dealfinder-db/internal/cli"

func main() {
	cli.Execute()
}
