package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kbukum/asrkit/version"
)

func runVersion(_ context.Context, args []string, out output) error {
	fs, _ := newFlagSet("version", out)
	short := fs.Bool("short", false, "print only the version")
	asJSON := fs.Bool("json", false, "print build information as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	info := version.Get()
	switch {
	case *short:
		fmt.Fprintln(out.stdout, version.Short())
	case *asJSON:
		enc := json.NewEncoder(out.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	default:
		fmt.Fprintln(out.stdout, info.String())
	}
	return nil
}
