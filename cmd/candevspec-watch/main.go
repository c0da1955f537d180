// Command candevspec-watch watches a directory of device specs and
// re-resolves each one as it changes (component C9), printing either a
// summary of the rebuilt device or the error that blocked it.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Redux-Robotics/canandrepo-public/internal/cli"
	"github.com/Redux-Robotics/canandrepo-public/internal/lower"
	"github.com/Redux-Robotics/canandrepo-public/internal/resolve"
	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
	"github.com/Redux-Robotics/canandrepo-public/internal/watch"
)

func main() {
	var (
		dir     = flag.String("dir", ".", "directory of .toml device specs to watch")
		showVer = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -dir ./specs\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVer {
		cli.PrintVersion("candevspec-watch", false)
		return
	}

	w, err := watch.New(*dir)
	if err != nil {
		cli.ExitWithError("watching %s: %v", *dir, err)
	}
	defer w.Close()

	fmt.Printf("watching %s for spec changes (ctrl-c to stop)\n", *dir)

	for {
		select {
		case ev := <-w.Events():
			handleEvent(*dir, ev)
		case err := <-w.Errors():
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}

func handleEvent(dir string, ev watch.Event) {
	if ev.Op == watch.OpRemoved {
		fmt.Printf("%s: removed\n", ev.Name)
		return
	}

	root, err := specdoc.Load(ev.Path)
	if err != nil {
		fmt.Printf("%s: load failed: %v\n", ev.Name, err)
		return
	}

	loader := resolve.DirLoader{Dir: filepath.Dir(ev.Path)}
	resolved, err := resolve.Resolve(root, loader)
	if err != nil {
		fmt.Printf("%s: resolve failed: %v\n", ev.Name, err)
		return
	}

	dev, err := lower.Lower(resolved)
	if err != nil {
		fmt.Printf("%s: lower failed: %v\n", ev.Name, err)
		return
	}

	fmt.Printf("%s: ok (%d messages, %d settings, %d enums)\n",
		ev.Name, len(dev.Messages), len(dev.Settings), len(dev.Enums))
}
