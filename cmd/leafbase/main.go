// Command leafbase is a minimal CLI front-end for the storage engine.
// It never parses SQL: it reads a JSON-encoded engine.Command per line
// from stdin (or a file), executes each through an engine.Engine, and
// prints the result. SQL parsing is an external collaborator's
// responsibility (spec.md §1); this binary exists so the engine has
// somewhere to run outside of tests.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/leafbase/leafbase/internal/config"
	"github.com/leafbase/leafbase/internal/engine"
	"github.com/leafbase/leafbase/internal/pager"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML or TOML config file")
		commands   = flag.String("commands", "", "path to a file of JSON-encoded commands, one per line (default: stdin)")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadYAML(*configPath)
		if err != nil {
			loaded, err = config.LoadTOML(*configPath)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "load config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	dev, err := openDevice(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open device:", err)
		os.Exit(1)
	}
	vd, err := pager.OpenVirtualDisk(dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open virtual disk:", err)
		os.Exit(1)
	}
	eng, err := engine.Open(vd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open engine:", err)
		os.Exit(1)
	}

	in := os.Stdin
	if *commands != "" {
		f, err := os.Open(*commands)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open commands file:", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if err := runCommands(eng, in, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDevice(cfg config.Config) (pager.BlockDevice, error) {
	if cfg.StorageMode == config.StorageDisk {
		return pager.OpenFileBlockDevice(cfg.DataFile)
	}
	return pager.NewMemoryBlockDevice(), nil
}

func runCommands(eng *engine.Engine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var cmd engine.Command
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			fmt.Fprintln(out, "parse error:", err)
			continue
		}
		result, err := eng.Execute(cmd)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			slog.Warn("command failed", "error", err)
			continue
		}
		printResult(out, result)
	}
	return scanner.Err()
}

func printResult(out io.Writer, result any) {
	rows, ok := result.([]engine.Row)
	if !ok {
		fmt.Fprintln(out, result)
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "(0 rows)")
		return
	}

	colSet := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			colSet[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
	for _, r := range rows {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			if v, ok := r[c]; ok {
				fmt.Fprint(w, v.String())
			}
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
