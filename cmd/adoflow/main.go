package main

import (
	"fmt"
	"os"

	"github.com/Ilia01/adoflow/internal/app"
)

func main() {
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "adoflow: %s\n", err)
		os.Exit(1)
	}
}
