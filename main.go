package main

import "github.com/bestruirui/argus/cmd"

func main() {
	cmd.Execute()
}
