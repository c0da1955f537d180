// Package gendoc generates Markdown reference documentation for a
// resolved device (component C12): one section per message, setting,
// enum, bitset, and struct, in a stable (sorted) order so the output
// diffs cleanly across regenerations.
//
// Grounded on cmd/orizon-doc's writeMarkdown: a strings.Builder filled
// with "## "/"### " headers, Markdown tables and bullet lists, no
// template engine.
package gendoc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Redux-Robotics/canandrepo-public/internal/ir"
)

// Generate renders dev as a single Markdown document.
func Generate(dev *ir.Device) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "# %s\n\n", dev.Name)
	fmt.Fprintf(&buf, "arch: `%s`  dev_type: `%d`  dev_class: `%d`\n\n", dev.Arch, dev.DevType, dev.DevClass)

	writeMessages(&buf, dev)
	writeSettings(&buf, dev)
	writeEnums(&buf, dev)
	writeBitsets(&buf, dev)
	writeStructs(&buf, dev)

	return buf.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMessages(buf *strings.Builder, dev *ir.Device) {
	if len(dev.Messages) == 0 {
		return
	}
	buf.WriteString("## Messages\n\n")
	for _, name := range sortedKeys(dev.Messages) {
		msg := dev.Messages[name]
		fmt.Fprintf(buf, "### %s (id=0x%02x, source=%s)\n\n", name, msg.ID, msg.Source)
		if msg.Comment != "" {
			fmt.Fprintf(buf, "%s\n\n", msg.Comment)
		}
		fmt.Fprintf(buf, "length: %d..%d bytes\n\n", msg.MinLength, msg.MaxLength)
		writeSignalTable(buf, msg.Signals)
	}
}

func writeSettings(buf *strings.Builder, dev *ir.Device) {
	if len(dev.Settings) == 0 {
		return
	}
	buf.WriteString("## Settings\n\n")
	buf.WriteString("| name | id | type | readable | writable | comment |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for _, name := range sortedKeys(dev.Settings) {
		s := dev.Settings[name]
		fmt.Fprintf(buf, "| %s | 0x%02x | %s | %v | %v | %s |\n",
			name, s.ID, s.DType.CanonicalName(), s.Readable, s.Writable, s.Comment)
	}
	buf.WriteString("\n")
}

func writeEnums(buf *strings.Builder, dev *ir.Device) {
	if len(dev.Enums) == 0 {
		return
	}
	buf.WriteString("## Enums\n\n")
	for _, name := range sortedKeys(dev.Enums) {
		e := dev.Enums[name]
		fmt.Fprintf(buf, "### %s (%d bits)\n\n", name, e.Width)
		indices := make([]int, 0, len(e.Values))
		for idx := range e.Values {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			entry := e.Values[idx]
			fmt.Fprintf(buf, "- `%d` %s — %s\n", idx, entry.Name, entry.Comment)
		}
		buf.WriteString("\n")
	}
}

func writeBitsets(buf *strings.Builder, dev *ir.Device) {
	if len(dev.Bitsets) == 0 {
		return
	}
	buf.WriteString("## Bitsets\n\n")
	for _, name := range sortedKeys(dev.Bitsets) {
		b := dev.Bitsets[name]
		fmt.Fprintf(buf, "### %s (%d bits)\n\n", name, b.Width)
		for _, flag := range b.Flags {
			fmt.Fprintf(buf, "- bit %d: %s — %s\n", flag.BitIdx, flag.Name, flag.Comment)
		}
		buf.WriteString("\n")
	}
}

func writeStructs(buf *strings.Builder, dev *ir.Device) {
	if len(dev.Structs) == 0 {
		return
	}
	buf.WriteString("## Structs\n\n")
	for _, name := range sortedKeys(dev.Structs) {
		s := dev.Structs[name]
		fmt.Fprintf(buf, "### %s\n\n", name)
		writeSignalTable(buf, s.Signals)
	}
}

func writeSignalTable(buf *strings.Builder, signals []ir.Signal) {
	buf.WriteString("| signal | type | optional | comment |\n")
	buf.WriteString("|---|---|---|---|\n")
	for _, sig := range signals {
		if sig.IsPad() {
			continue
		}
		fmt.Fprintf(buf, "| %s | %s | %v | %s |\n", sig.Name, sig.DType.CanonicalName(), sig.Optional, sig.Comment)
	}
	buf.WriteString("\n")
}
