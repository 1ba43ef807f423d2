package pool

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// searchAlone runs f, which may return nil, until count results are found.
func searchAlone(f func() interface{}, count int) []interface{} {
	results := make([]interface{}, count)
	for i := 0; i < len(results); i++ {
		results[i] = nil
		for ; results[i] == nil; results[i] = f() {
		}
	}
	return results
}

// parallelizeAlone calculates the result of f count times, on this thread.
func parallelizeAlone(f func(int) interface{}, count int) []interface{} {
	results := make([]interface{}, count)
	for i := 0; i < len(results); i++ {
		results[i] = f(i)
	}
	return results
}

// command tells a latent worker what to do.
//
// A worker either evaluates a function at a single index, or keeps calling
// a search function until it returns a non nil result.
type command struct {
	search bool
	// ctr is the number of results still missing.
	ctr *int64
	// i is the index to evaluate f at, when not searching.
	i       int
	f       func(int) interface{}
	results []interface{}
}

// workerSearch keeps querying f while *ctr > 0, decrementing *ctr for every
// successful result.
func workerSearch(results []interface{}, ctrChanged chan<- struct{}, f func(int) interface{}, ctr *int64) {
	for atomic.LoadInt64(ctr) > 0 {
		res := f(0)
		if res == nil {
			continue
		}
		i := atomic.AddInt64(ctr, -1)
		ctrChanged <- struct{}{}
		if i < 0 {
			break
		}
		results[i] = res
	}
}

func worker(commands <-chan command, ctrChanged chan<- struct{}) {
	for c := range commands {
		if c.search {
			workerSearch(c.results, ctrChanged, c.f, c.ctr)
		} else {
			c.results[c.i] = c.f(c.i)
			atomic.AddInt64(c.ctr, -1)
			ctrChanged <- struct{}{}
		}
	}
}

// Pool is a fixed set of latent workers.
//
// Key generation uses it to hunt for the two prime factors of an election
// modulus in parallel, and anything CPU bound across candidates or elections
// can use Parallelize.
//
// Functions taking a *Pool accept a nil receiver, and then do the equivalent
// work on the current thread.
type Pool struct {
	// commands is shared by all workers, which effectively makes this a work
	// stealing pool.
	commands chan command
	// ctrChanged signals a finished task.
	ctrChanged  chan struct{}
	workerCount int
}

// NewPool creates a pool with a certain number of workers.
//
// If count <= 0, the number of available CPUs is used instead.
func NewPool(count int) *Pool {
	var p Pool

	if count <= 0 {
		count = runtime.NumCPU()
	}

	p.commands = make(chan command)
	p.workerCount = count
	p.ctrChanged = make(chan struct{})

	for i := 0; i < count; i++ {
		go worker(p.commands, p.ctrChanged)
	}

	return &p
}

// TearDown stops the pool's workers. The pool must not be used afterwards.
func (p *Pool) TearDown() {
	close(p.commands)
}

// Search queries f until count successes are found.
//
// f tries a single candidate, returning nil when that candidate fails.
func (p *Pool) Search(count int, f func() interface{}) []interface{} {
	if p == nil {
		return searchAlone(f, count)
	}

	results := make([]interface{}, count)

	ctr := int64(count)
	cmd := command{
		search:  true,
		ctr:     &ctr,
		f:       func(int) interface{} { return f() },
		results: results,
	}
	for i := 0; i < p.workerCount; i++ {
		p.commands <- cmd
	}
	for atomic.LoadInt64(&ctr) > 0 {
		<-p.ctrChanged
	}

	return results
}

// Parallelize returns [f(0), f(1), ..., f(count - 1)], evaluated across the
// pool's workers.
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	if p == nil {
		return parallelizeAlone(f, count)
	}

	results := make([]interface{}, count)

	ctr := int64(count)
	cmdI := 0
	for cmdI < count {
		cmd := command{
			search:  false,
			i:       cmdI,
			ctr:     &ctr,
			f:       f,
			results: results,
		}
		// Sending all commands without blocking isn't possible, so interleave
		// draining finished workers with handing out new work.
		select {
		case p.commands <- cmd:
			cmdI++
		case <-p.ctrChanged:
		}
	}
	for atomic.LoadInt64(&ctr) > 0 {
		<-p.ctrChanged
	}

	return results
}

// LockedReader wraps an io.Reader so that concurrent reads are safe.
//
// Which goroutine ends up with which bytes is raced, but no bytes are ever
// read twice.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader wraps r. The zero mutex is ready to use.
func NewLockedReader(r io.Reader) *LockedReader {
	return &LockedReader{reader: r}
}

// Read implements io.Reader.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
