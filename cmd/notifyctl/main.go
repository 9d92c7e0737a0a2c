package main

import (
	"os"

	"parsera-notifier/cmd/notifyctl/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
