package main

import (
	"os"

	"github.com/smazurov/kiosk/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
