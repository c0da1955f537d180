// Command candevspec-gen resolves a device spec and emits a standalone Go
// host binding file for it (component C13).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Redux-Robotics/canandrepo-public/internal/cli"
	"github.com/Redux-Robotics/canandrepo-public/internal/genhost"
	"github.com/Redux-Robotics/canandrepo-public/internal/lower"
	"github.com/Redux-Robotics/canandrepo-public/internal/resolve"
	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
)

func main() {
	var (
		specPath   = flag.String("spec", "", "path to the device .toml spec")
		outPath    = flag.String("out", "", "output .go file path (default: <spec>_gen.go)")
		pkgName    = flag.String("package", "candevspec", "generated package name")
		showVer    = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -spec device.toml [-out device_gen.go] [-package name]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVer {
		cli.PrintVersion("candevspec-gen", false)
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

	src, err := genhost.Generate(dev, *pkgName)
	if err != nil {
		cli.ExitWithError("generating host binding: %v", err)
	}

	out := *outPath
	if out == "" {
		base := filepath.Base(*specPath)
		ext := filepath.Ext(base)
		out = base[:len(base)-len(ext)] + "_gen.go"
	}

	if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
		cli.ExitWithError("writing %s: %v", out, err)
	}
	fmt.Printf("wrote %s\n", out)
}
