package main

// main is never called: a weft plugin is a WASI reactor, not a command,
// and the host only ever calls the //go:wasmexport functions the sdk/go
// package registers. It exists because GOOS=wasip1 requires package main.
func main() {}
