package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"pcmemu/emu/log"
)

type mode byte

const (
	renderMode  mode = iota // Render files to WAV
	playMode                // Play a file on the audio device
	infoMode                // Show file infos
	dumpMode                // Dump chip states
	versionMode             // Show pcmemu version
)

type (
	CLI struct {
		Render  Render  `cmd:"" help:"Render VGM files to WAV files."`
		Play    Play    `cmd:"" help:"Play a VGM file on the default audio device."`
		Info    Info    `cmd:"" help:"Show VGM file infos."`
		Dump    Dump    `cmd:"" help:"Dump the chip states as JSON lines."`
		Version Version `cmd:"" help:"Show pcmemu version."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `name:"config" help:"${config_help}" type:"existingfile" placeholder:"FILE"`

		mode mode
	}

	Render struct {
		Paths  []string `arg:"" name:"/path/to/vgm" help:"VGM or VGZ files to render." type:"existingfile"`
		OutDir string   `name:"outdir" short:"o" help:"${outdir_help}" type:"existingdir"`
		Jobs   int      `name:"jobs" short:"j" help:"Number of files rendered concurrently." default:"${ncpu}"`
	}

	Play struct {
		Path string `arg:"" name:"/path/to/vgm" type:"existingfile"`
	}

	Info struct {
		Paths []string `arg:"" name:"/path/to/vgm" type:"existingfile"`
	}

	Dump struct {
		Path     string   `arg:"" name:"/path/to/vgm" type:"existingfile"`
		Interval uint32   `name:"interval" help:"${interval_help}" default:"735"`
		Output   *outfile `name:"output" help:"Write the dump to a file." placeholder:"FILE|stdout|stderr"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":      "Enable logging for specified modules.",
	"config_help":   "Configuration file. Defaults to config.toml in the pcmemu config directory.",
	"outdir_help":   "Directory of the WAV files. Defaults to the directory of each VGM file.",
	"interval_help": "Number of VGM samples (1/44100s) between two dumps.",
	"ncpu":          strconv.Itoa(runtime.NumCPU()),
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("pcmemu"),
		kong.Description("Sample-playback sound chips emulator and VGM player."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch strings.Fields(ctx.Command())[0] {
	case "render":
		cfg.mode = renderMode
	case "play":
		cfg.mode = playMode
	case "info":
		cfg.mode = infoMode
	case "dump":
		cfg.mode = dumpMode
	case "version":
		cfg.mode = versionMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if ctx.Command() == "" {
		return nil
	}

	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	return f.open(tok.Value.(string))
}

func (f *outfile) open(name string) error {
	f.name = name
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
