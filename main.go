package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"

	"bstgroovy/internal/build"
	"bstgroovy/internal/cache"
	"bstgroovy/internal/runlog"
	"bstgroovy/pkg/compiler"
	"bstgroovy/pkg/utils"
)

const usage = `usage: bstgroovy [options] style.bst...

options:
  -o DIR       write classes to DIR instead of next to each style
  -s           print classes to standard output
  -c NAME      class name (single input only; default from the file name)
  -p PREFIX    prefix of synthesized locals (default "v")
  -P FN=PFX    local prefix for one function, may be repeated
  -d           skip functions no EXECUTE, ITERATE or REVERSE can reach
  -C FILE      compile cache database
  -L FILE      run log database
  -v           verbose
  -h           help
`

type config struct {
	outDir    string
	stdout    bool
	className string
	opts      compiler.Options
	cachePath string
	logPath   string
	verbose   bool
	files     []string
}

func parseArgs(args []string) (*config, error) {
	opts, optind, err := getopt.Getopts(args, "o:sc:p:P:dC:L:vh")
	if err != nil {
		return nil, err
	}
	cfg := &config{}
	for _, opt := range opts {
		switch opt.Option {
		case 'o':
			cfg.outDir = opt.Value
		case 's':
			cfg.stdout = true
		case 'c':
			cfg.className = opt.Value
		case 'p':
			cfg.opts.LocalPrefix = opt.Value
		case 'P':
			fn, prefix, ok := strings.Cut(opt.Value, "=")
			if !ok || fn == "" || prefix == "" {
				return nil, fmt.Errorf("-P expects FUNCTION=PREFIX, got %q", opt.Value)
			}
			if cfg.opts.Prefixes == nil {
				cfg.opts.Prefixes = make(map[string]string)
			}
			cfg.opts.Prefixes[strings.ToLower(fn)] = prefix
		case 'd':
			cfg.opts.EliminateDead = true
		case 'C':
			cfg.cachePath = opt.Value
		case 'L':
			cfg.logPath = opt.Value
		case 'v':
			cfg.verbose = true
		case 'h':
			return nil, nil
		}
	}
	cfg.files = args[optind:]
	if len(cfg.files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	if cfg.className != "" && len(cfg.files) > 1 {
		return nil, fmt.Errorf("-c needs exactly one input file")
	}
	return cfg, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("bstgroovy: ")

	cfg, err := parseArgs(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bstgroovy: %v\n%s", err, usage)
		os.Exit(2)
	}
	if cfg == nil {
		fmt.Print(usage)
		return
	}

	b := &build.Builder{Verbose: cfg.verbose}
	if cfg.cachePath != "" {
		if b.Cache, err = cache.Open(cfg.cachePath); err != nil {
			log.Fatalf("open cache %s: %v", cfg.cachePath, err)
		}
		defer b.Cache.Close()
	}
	if cfg.logPath != "" {
		if b.Log, err = runlog.Open(cfg.logPath); err != nil {
			log.Fatalf("open run log %s: %v", cfg.logPath, err)
		}
		defer b.Log.Close()
	}

	failed := 0
	for _, path := range cfg.files {
		if err := compileFile(b, cfg, path); err != nil {
			failed++
			if !build.IsCompileError(err) {
				color.New(color.FgRed).Fprintf(os.Stderr, "%s: %v\n", path, err)
			}
		}
	}
	if failed > 0 {
		log.Printf("%d of %d styles failed", failed, len(cfg.files))
		// os.Exit skips the deferred closes.
		if b.Cache != nil {
			b.Cache.Close()
		}
		if b.Log != nil {
			b.Log.Close()
		}
		os.Exit(1)
	}
}

func compileFile(b *build.Builder, cfg *config, path string) error {
	fullPath, _, err := utils.GetPathInfo(path)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(fullPath)
	if err != nil {
		return err
	}

	opts := cfg.opts
	opts.ClassName = cfg.className
	if opts.ClassName == "" {
		opts.ClassName = utils.ClassName(path)
	}

	out, err := b.Build(path, string(src), opts)
	if out != nil && out.Result != nil {
		out.Result.Diagnostics.Print(os.Stderr, path)
	}
	if err != nil {
		return err
	}

	if cfg.stdout {
		fmt.Print(out.Groovy)
		return nil
	}
	dest := utils.OutputPath(path, cfg.outDir)
	if err := os.WriteFile(dest, []byte(out.Groovy), 0o644); err != nil {
		return err
	}
	if cfg.verbose {
		log.Printf("%s -> %s", path, dest)
	}
	return nil
}
