package main

import cmd "github.com/rohmanhakim/filehash-cache/internal/cli"

func main() {
	cmd.Execute()
}
