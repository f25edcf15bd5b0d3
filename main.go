/*
Copyright 2023 Markus Papenbrock
*/
package main

import "github.com/mpapenbr/lapracer/cmd"

func main() {
	cmd.Execute()
}
