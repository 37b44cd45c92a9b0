// Package server exposes the compiler over HTTP.
//
//	POST /compile?name=plain.bst&class=Plain&prefix=v&dead=1   body: BST source
//	GET  /runs?limit=20
//	GET  /stats
package server

import (
	"expvar"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/tevino/abool/v2"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/expvarhandler"

	"bstgroovy/internal/build"
	"bstgroovy/pkg/compiler"
)

// Various counters, served on /stats.
var (
	compileCalls  = expvar.NewInt("compileCalls")
	compileOK     = expvar.NewInt("compileOK")
	compileFailed = expvar.NewInt("compileFailed")
	cacheHits     = expvar.NewInt("cacheHits")
	evictedItems  = expvar.NewInt("evictedItems")
)

// Config controls the service.
type Config struct {
	Addr       string
	CacheTTL   time.Duration // entries not read for this long are evicted
	EvictEvery time.Duration
	EvictLimit int // rows per eviction pass
	Verbose    bool
}

// Server is the compile service.
type Server struct {
	cfg      Config
	builder  *build.Builder
	http     *fasthttp.Server
	sched    gocron.Scheduler
	evicting *abool.AtomicBool
}

func New(cfg Config, b *build.Builder) *Server {
	if cfg.EvictLimit <= 0 {
		cfg.EvictLimit = 2000
	}
	s := &Server{cfg: cfg, builder: b, evicting: abool.NewBool(false)}
	s.http = &fasthttp.Server{
		Handler:      s.Handler,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}
	return s
}

// Handler routes one request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/compile":
		s.handleCompile(ctx)
	case "/runs":
		s.handleRuns(ctx)
	case "/stats":
		expvarhandler.ExpvarHandler(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func optionsFrom(ctx *fasthttp.RequestCtx) compiler.Options {
	args := ctx.QueryArgs()
	return compiler.Options{
		ClassName:     string(args.Peek("class")),
		LocalPrefix:   string(args.Peek("prefix")),
		EliminateDead: args.GetBool("dead"),
	}
}

func (s *Server) handleCompile(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.Error("POST a BST style to /compile", fasthttp.StatusMethodNotAllowed)
		return
	}
	compileCalls.Add(1)
	name := string(ctx.QueryArgs().Peek("name"))
	if name == "" {
		name = "request.bst"
	}

	out, err := s.builder.Build(name, string(ctx.PostBody()), optionsFrom(ctx))
	switch {
	case build.IsCompileError(err):
		compileFailed.Add(1)
		ctx.SetStatusCode(fasthttp.StatusUnprocessableEntity)
		ctx.SetContentType("text/plain; charset=utf-8")
		for _, d := range out.Diagnostics() {
			fmt.Fprintf(ctx, "%s: %s\n", name, d)
		}
		return
	case err != nil:
		compileFailed.Add(1)
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
		return
	}

	compileOK.Add(1)
	if out.Cached {
		cacheHits.Add(1)
		ctx.Response.Header.Set("X-Cache", "hit")
	} else {
		ctx.Response.Header.Set("X-Cache", "miss")
	}
	ctx.Success("text/x-groovy; charset=utf-8", []byte(out.Groovy))
}

func (s *Server) handleRuns(ctx *fasthttp.RequestCtx) {
	if s.builder.Log == nil {
		ctx.Error("run log disabled", fasthttp.StatusNotFound)
		return
	}
	limit := 20
	if v := ctx.QueryArgs().Peek("limit"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil || n <= 0 {
			ctx.Error("invalid limit", fasthttp.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := s.builder.Log.Recent(limit)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("text/plain; charset=utf-8")
	for _, r := range runs {
		fmt.Fprintf(ctx, "%d\t%s\t%s\t%s\terrors=%d\twarnings=%d\tcached=%t\n",
			r.ID, r.At.UTC().Format(time.RFC3339), r.File, r.Duration, r.Errors, r.Warnings, r.Cached)
	}
}

// ListenAndServe serves on cfg.Addr until Shutdown.
func (s *Server) ListenAndServe() error {
	log.Printf("Starting HTTP server on %q", s.cfg.Addr)
	return s.http.ListenAndServe(s.cfg.Addr)
}

// StartEviction schedules cache eviction every cfg.EvictEvery. It does
// nothing without a cache or an interval.
func (s *Server) StartEviction() error {
	if s.builder.Cache == nil || s.cfg.EvictEvery <= 0 {
		return nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := sched.NewJob(gocron.DurationJob(s.cfg.EvictEvery), gocron.NewTask(s.evict)); err != nil {
		return err
	}
	s.sched = sched
	sched.Start()
	return nil
}

// evict runs one eviction pass. Overlapping passes are skipped.
func (s *Server) evict() {
	if !s.evicting.SetToIf(false, true) {
		return
	}
	defer s.evicting.UnSet()

	n, err := s.builder.Cache.EvictExpired(time.Now().Add(-s.cfg.CacheTTL), s.cfg.EvictLimit)
	if err != nil {
		log.Printf("cache eviction: %v", err)
		return
	}
	evictedItems.Add(int64(n))
	if s.cfg.Verbose && n > 0 {
		log.Printf("evicted %d cache entries", n)
	}
}

// Shutdown stops the scheduler and the HTTP server.
func (s *Server) Shutdown() error {
	if s.sched != nil {
		if err := s.sched.Shutdown(); err != nil {
			log.Println(err)
		}
	}
	return s.http.Shutdown()
}
