// Command candevspec-doc resolves a device spec and emits its Markdown
// reference documentation (component C12).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Redux-Robotics/canandrepo-public/internal/cli"
	"github.com/Redux-Robotics/canandrepo-public/internal/gendoc"
	"github.com/Redux-Robotics/canandrepo-public/internal/lower"
	"github.com/Redux-Robotics/canandrepo-public/internal/resolve"
	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
)

func main() {
	var (
		specPath = flag.String("spec", "", "path to the device .toml spec")
		outPath  = flag.String("out", "", "output .md file path (default: stdout)")
		showVer  = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -spec device.toml [-out device.md]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVer {
		cli.PrintVersion("candevspec-doc", false)
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

	doc := gendoc.Generate(dev)

	if *outPath == "" {
		fmt.Print(doc)
		return
	}
	if err := os.WriteFile(*outPath, []byte(doc), 0o644); err != nil {
		cli.ExitWithError("writing %s: %v", *outPath, err)
	}
	fmt.Printf("wrote %s\n", *outPath)
}
