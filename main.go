package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"pcmemu/emu"
	"pcmemu/emu/log"
	"pcmemu/vgm"
)

func main() {
	cli := parseArgs(os.Args[1:])

	if cli.mode == versionMode {
		printVersion()
		return
	}

	cfg := loadConfig(cli.Config)
	for _, name := range cfg.Log.Modules {
		mod, _ := log.ModuleByName(name)
		log.EnableDebugModules(mod.Mask())
	}

	switch cli.mode {
	case renderMode:
		checkf(render(cli.Render, cfg), "render failed")
	case playMode:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		p := newPlayer(cli.Play.Path, cfg)
		if err := p.Play(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fatalf("playback failed: %s", err)
		}
	case infoMode:
		for i, path := range cli.Info.Paths {
			f, err := vgm.Open(path)
			checkf(err, "failed to open vgm file")
			if i > 0 {
				fmt.Println()
			}
			fmt.Println(path)
			f.PrintInfos(os.Stdout)
		}
	case dumpMode:
		out := cli.Dump.Output
		if out == nil {
			out = &outfile{}
			checkf(out.open("stdout"), "failed to open output")
		}
		p := newPlayer(cli.Dump.Path, cfg)
		err := p.Dump(out, cli.Dump.Interval)
		checkf(errors.Join(err, out.Close()), "dump failed")
	}
}

func loadConfig(path string) emu.Config {
	if path == "" {
		return emu.LoadConfigOrDefault()
	}
	cfg, err := emu.LoadConfig(path)
	checkf(err, "failed to load configuration")
	return cfg
}

func newPlayer(path string, cfg emu.Config) *emu.Player {
	f, err := vgm.Open(path)
	checkf(err, "failed to open vgm file")
	p, err := emu.NewPlayer(f, cfg)
	checkf(err, "failed to create player")
	return p
}

// render renders each file to a WAV file with the same base name.
func render(args Render, cfg emu.Config) error {
	var g errgroup.Group
	g.SetLimit(max(args.Jobs, 1))

	for _, path := range args.Paths {
		g.Go(func() error {
			f, err := vgm.Open(path)
			if err != nil {
				return err
			}
			p, err := emu.NewPlayer(f, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			out := wavPath(path, args.OutDir)
			frames, err := p.WriteWAV(out)
			if err != nil {
				return err
			}
			log.ModOutput.InfoZ("rendered").
				String("file", out).
				Int("frames", frames).
				Int("rate", p.SampleRate()).
				End()
			return nil
		})
	}
	return g.Wait()
}

// wavPath returns the WAV file path for the VGM file at path.
func wavPath(path, dir string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".wav"
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, base)
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("pcmemu", version)
}
