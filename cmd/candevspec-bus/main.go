// Command candevspec-bus bridges a resolved device spec to a live
// SocketCAN interface (component C11), decoding and printing every
// frame it sees addressed to the given device type.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/Redux-Robotics/canandrepo-public/internal/bus"
	"github.com/Redux-Robotics/canandrepo-public/internal/cli"
	"github.com/Redux-Robotics/canandrepo-public/internal/lower"
	"github.com/Redux-Robotics/canandrepo-public/internal/resolve"
	"github.com/Redux-Robotics/canandrepo-public/internal/runtime"
	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
)

func main() {
	var (
		specPath  = flag.String("spec", "", "path to the device .toml spec")
		iface     = flag.String("iface", "can0", "SocketCAN interface name")
		devTypeID = flag.Int("dev-type", 0, "device_type to filter incoming frames by")
		showVer   = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -spec device.toml -iface can0 -dev-type N\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVer {
		cli.PrintVersion("candevspec-bus", false)
		return
	}
	if *specPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	root, err := specdoc.Load(*specPath)
	if err != nil {
		cli.ExitWithError("loading %s: %v", *specPath, err)
	}
	loader := resolve.DirLoader{Dir: filepath.Dir(*specPath)}
	resolved, err := resolve.Resolve(root, loader)
	if err != nil {
		cli.ExitWithError("resolving %s: %v", *specPath, err)
	}
	dev, err := lower.Lower(resolved)
	if err != nil {
		cli.ExitWithError("lowering %s: %v", *specPath, err)
	}

	conn, err := bus.Open(*iface)
	if err != nil {
		cli.ExitWithError("opening %s: %v", *iface, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("listening on %s for %s frames (ctrl-c to stop)\n", *iface, dev.Name)
	for {
		fr, err := conn.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(os.Stderr, "recv error: %v\n", err)
			continue
		}

		name, values, ok := runtime.DecodeAny(dev, uint8(*devTypeID), fr)
		if !ok {
			continue
		}
		fmt.Printf("%s: %v\n", name, values)
	}
}
