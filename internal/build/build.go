// Package build runs the compiler behind the optional compile cache and
// run log shared by the command-line tool and the compile service.
package build

import (
	"errors"
	"log"
	"time"

	"bstgroovy/internal/cache"
	"bstgroovy/internal/runlog"
	"bstgroovy/pkg/compiler"
)

// Builder compiles styles. Cache and Log are optional.
type Builder struct {
	Cache   *cache.Cache
	Log     *runlog.Log
	Verbose bool
}

// Output is the outcome of one Build.
type Output struct {
	Groovy   string
	Cached   bool
	Key      string
	Warnings int
	Result   *compiler.Result // nil for cache hits and lex/parse errors
}

// Diagnostics returns the sorted diagnostics of a fresh compilation.
func (o *Output) Diagnostics() []compiler.Diagnostic {
	if o.Result == nil {
		return nil
	}
	return o.Result.Diagnostics.Sorted()
}

// Build compiles src, named name in logs. Only successful compilations
// are cached. The returned Output is non-nil whenever err wraps
// compiler.ErrCompile.
func (b *Builder) Build(name, src string, opts compiler.Options) (*Output, error) {
	start := time.Now()
	out := &Output{Key: cache.Key(src, opts)}

	if b.Cache != nil {
		entry, ok, err := b.Cache.Get(out.Key)
		if err != nil {
			log.Printf("cache lookup for %s: %v", name, err)
		} else if ok {
			out.Groovy = entry.Groovy
			out.Cached = true
			out.Warnings = entry.Warnings
			b.record(name, out, 0, start)
			if b.Verbose {
				log.Printf("%s: cache hit %.12s", name, out.Key)
			}
			return out, nil
		}
	}

	res, err := compiler.Compile(src, opts)
	if res == nil {
		return nil, err
	}
	out.Result = res
	out.Groovy = res.Groovy
	out.Warnings = res.Diagnostics.Len() - res.Diagnostics.Errors()
	b.record(name, out, res.Diagnostics.Errors(), start)
	if err != nil {
		return out, err
	}

	if b.Cache != nil {
		entry := &cache.Entry{ClassName: opts.ClassName, Groovy: out.Groovy, Warnings: out.Warnings}
		if err := b.Cache.Put(out.Key, entry); err != nil {
			log.Printf("cache store for %s: %v", name, err)
		}
	}
	if b.Verbose {
		log.Printf("%s: compiled %d functions in %v", name, len(res.Units), time.Since(start))
	}
	return out, nil
}

func (b *Builder) record(name string, out *Output, errs int, start time.Time) {
	if b.Log == nil {
		return
	}
	run := &runlog.Run{
		File:     name,
		Key:      out.Key,
		Cached:   out.Cached,
		Errors:   errs,
		Warnings: out.Warnings,
		Duration: time.Since(start),
		At:       start,
	}
	if err := b.Log.Record(run); err != nil {
		log.Printf("run log for %s: %v", name, err)
	}
}

// IsCompileError reports whether err carries diagnostics rather than a
// lex, parse or I/O failure.
func IsCompileError(err error) bool {
	return errors.Is(err, compiler.ErrCompile)
}
