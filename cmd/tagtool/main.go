// Command tagtool inspects and edits MP3 metadata tags from the
// command line.
//
//	tagtool read FILE...              print the resolved entries
//	tagtool get FILE ENTRY            print one entry
//	tagtool set FILE ENTRY=VALUE...   set entries and save
//	tagtool remove FILE ENTRY...      remove entries and save
//	tagtool clear FILE [FORMAT]       delete one tag, or all of them
//	tagtool scan [DIR]                list MP3 files and their tags
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/audiotag"
	"github.com/llehouerou/audiotag/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "tagtool:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := flag.NewFlagSet("tagtool", flag.ContinueOnError)
	showCustom := flags.Bool("custom", cfg.ShowCustomEntries(), "include custom APE items in read output")
	if err := flags.Parse(args); err != nil {
		return err
	}
	args = flags.Args()
	if len(args) == 0 {
		return errors.New("usage: tagtool [-custom] read|get|set|remove|clear|scan ...")
	}

	cmd, args := args[0], args[1:]
	opts, err := writerOptions(cfg)
	if err != nil {
		return err
	}
	switch cmd {
	case "read":
		if len(args) == 0 {
			return errors.New("usage: tagtool read FILE...")
		}
		return cmdRead(args, *showCustom)
	case "get":
		if len(args) != 2 {
			return errors.New("usage: tagtool get FILE ENTRY")
		}
		return cmdGet(args[0], args[1])
	case "set":
		if len(args) < 2 {
			return errors.New("usage: tagtool set FILE ENTRY=VALUE...")
		}
		return cmdSet(args[0], args[1:], opts)
	case "remove":
		if len(args) < 2 {
			return errors.New("usage: tagtool remove FILE ENTRY...")
		}
		return cmdRemove(args[0], args[1:], opts)
	case "clear":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: tagtool clear FILE [id3v1|id3v2|ape|all]")
		}
		target := "all"
		if len(args) == 2 {
			target = args[1]
		}
		return cmdClear(args[0], target, opts)
	case "scan":
		dir := cfg.DefaultFolder
		if len(args) > 0 {
			dir = args[0]
		}
		if dir == "" {
			dir = "."
		}
		return cmdScan(dir)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdRead(paths []string, showCustom bool) error {
	for i, path := range paths {
		if i > 0 {
			fmt.Println()
		}
		if len(paths) > 1 {
			fmt.Printf("%s:\n", path)
		}
		entries, err := audiotag.ReadAll(path)
		if err != nil {
			return err
		}
		printEntries(entries, showCustom)
	}
	return nil
}

func printEntries(entries map[audiotag.MetaEntry]string, showCustom bool) {
	standard := audiotag.StandardEntries()
	seen := make(map[audiotag.MetaEntry]bool, len(standard))
	for _, e := range standard {
		seen[e] = true
		if v, ok := entries[e]; ok {
			fmt.Printf("%-18s %s\n", e, v)
		}
	}
	if !showCustom {
		return
	}
	var custom []string
	for e := range entries {
		if !seen[e] {
			custom = append(custom, string(e))
		}
	}
	sort.Strings(custom)
	for _, e := range custom {
		fmt.Printf("%-18s %s\n", e, entries[audiotag.MetaEntry(e)])
	}
}

func cmdGet(path, entry string) error {
	v, err := audiotag.Get(path, audiotag.MetaEntry(entry))
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

// writerOptions maps the config keys onto writer behavior.
func writerOptions(cfg *config.Config) ([]audiotag.WriterOption, error) {
	f, ok := formatByName(cfg.CreateFormat())
	if !ok {
		return nil, fmt.Errorf("config preferred_format: unknown tag format %q", cfg.CreateFormat())
	}
	opts := []audiotag.WriterOption{audiotag.WithCreateFormat(f)}
	if cfg.Padding > 0 {
		opts = append(opts, audiotag.WithMinPadding(cfg.Padding))
	}
	return opts, nil
}

func formatByName(name string) (audiotag.Format, bool) {
	switch name {
	case "id3v1":
		return audiotag.FormatID3v1, true
	case "id3v2":
		return audiotag.FormatID3v2, true
	case "ape":
		return audiotag.FormatAPE, true
	}
	return 0, false
}

func cmdSet(path string, pairs []string, opts []audiotag.WriterOption) error {
	entries := make(map[audiotag.MetaEntry]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("argument %q is not of the form ENTRY=VALUE", pair)
		}
		entries[audiotag.MetaEntry(name)] = value
	}
	w, err := audiotag.OpenWriter(path, opts...)
	if err != nil {
		return err
	}
	for e, v := range entries {
		if err := w.SetMetaEntry(e, v); err != nil {
			return err
		}
	}
	return w.Save()
}

func cmdRemove(path string, names []string, opts []audiotag.WriterOption) error {
	w, err := audiotag.OpenWriter(path, opts...)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := w.DeleteMetaEntry(audiotag.MetaEntry(name)); err != nil {
			return err
		}
	}
	return w.Save()
}

func cmdClear(path, target string, opts []audiotag.WriterOption) error {
	var formats []audiotag.Format
	if target == "all" {
		formats = audiotag.Formats
	} else {
		f, ok := formatByName(target)
		if !ok {
			return fmt.Errorf("unknown tag format %q", target)
		}
		formats = []audiotag.Format{f}
	}

	w, err := audiotag.OpenWriter(path, opts...)
	if err != nil {
		return err
	}
	cleared := false
	for _, f := range formats {
		err := w.DeleteTag(f)
		if errors.Is(err, audiotag.ErrNoTag) {
			continue
		}
		if err != nil {
			return err
		}
		cleared = true
	}
	if !cleared {
		return fmt.Errorf("%s has no %s tag", path, target)
	}
	return w.Save()
}

func cmdScan(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".mp3") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		r, err := audiotag.OpenReader(path)
		if err != nil {
			return err
		}
		var formats []string
		for _, f := range audiotag.Formats {
			if r.IsPresent(f) {
				formats = append(formats, f.String())
			}
		}
		r.Close()

		tags := "no tags"
		if len(formats) > 0 {
			tags = strings.Join(formats, ", ")
		}
		fmt.Printf("%-60s %10s  %s\n", path, humanize.IBytes(uint64(info.Size())), tags)
		return nil
	})
}
