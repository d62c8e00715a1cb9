// Command ipca-example is an illustrative interactive shell wiring
// pkg/core.Framework against in-memory simulated devices. It is a demo
// surface, not a product, grounded on cmd/cem-example/main.go and
// cmd/mash-device/interactive/device.go's readline-REPL shape.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/SashankSharma/iotivity/pkg/core"
	"github.com/SashankSharma/iotivity/pkg/core/examplestore"
	"github.com/SashankSharma/iotivity/pkg/log"
)

func main() {
	cfg := core.DefaultConfig(core.AppInfo{
		AppName:            "ipca-example",
		AppSoftwareVersion: "0.1.0",
		AppCompanyName:     "example",
	})
	cfg.UnitTestMode = true

	storeDir, err := os.MkdirTemp("", "ipca-example-store-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, "create store dir:", err)
		os.Exit(1)
	}
	store, err := examplestore.New(storeDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create store:", err)
		os.Exit(1)
	}

	logger := log.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))

	fw := core.New(cfg, newSimClient(), &simProvisioner{}, store, logger)

	if serr := fw.Start(context.Background()); serr != nil {
		fmt.Fprintln(os.Stderr, "start failed:", serr)
		os.Exit(1)
	}
	defer fw.Stop()

	sh, err := newShell(fw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shell:", err)
		os.Exit(1)
	}
	defer sh.Close()

	sh.run(context.Background())
}
