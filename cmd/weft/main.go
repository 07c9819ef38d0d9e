// Package main provides the weft CLI entry point.
package main

func main() {
	Execute()
}
