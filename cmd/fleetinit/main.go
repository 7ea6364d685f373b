package main

import (
	"fmt"
	"os"

	"github.com/fleetinit/fleetinit/internal/pkg/cli"
	"github.com/fleetinit/fleetinit/internal/pkg/env"
)

func main() {
	osEnvs, err := env.FromOs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read env variables: %s\n", err)
		os.Exit(cli.ExitCodeError)
	}

	os.Exit(cli.NewRootCommand(os.Stdout, os.Stderr, osEnvs).Execute())
}
