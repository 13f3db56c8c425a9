package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/progression/internal/domain"
	"example.com/progression/internal/observability"
)

// persister serializes writes for one record. Only the newest snapshot is ever written.
// A pending clear runs after every log append issued before it, and snapshots and
// appends issued after it wait for it.
type persister struct {
	gateway Gateway
	logger  logrus.FieldLogger
	timeout time.Duration

	mu           sync.Mutex
	pendingClear bool
	pending      *domain.ProgressionRecord
	// clearing is closed once the pending clear has been attempted.
	clearing   chan struct{}
	clearAfter []chan struct{}
	appendSeq  uint64
	inflight   map[uint64]inflightAppend

	wake  chan struct{}
	flush chan chan struct{}
	quit  chan struct{}
	done  chan struct{}

	appends sync.WaitGroup
}

type inflightAppend struct {
	finished chan struct{}
	gate     chan struct{}
}

func newPersister(gateway Gateway, logger logrus.FieldLogger, timeout time.Duration) *persister {
	p := &persister{
		gateway:  gateway,
		logger:   logger,
		timeout:  timeout,
		inflight: make(map[uint64]inflightAppend),
		wake:     make(chan struct{}, 1),
		flush:    make(chan chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) save(rec domain.ProgressionRecord) {
	p.mu.Lock()
	p.pending = &rec
	p.mu.Unlock()
	p.signal()
}

func (p *persister) clear() {
	p.mu.Lock()
	p.pendingClear = true
	p.pending = nil
	if p.clearing == nil {
		p.clearing = make(chan struct{})
	}
	for _, a := range p.inflight {
		// appends gated on this clear already run after it
		if a.gate != p.clearing {
			p.clearAfter = append(p.clearAfter, a.finished)
		}
	}
	p.mu.Unlock()
	p.signal()
}

// appendLog issues the workout log write concurrently with any snapshot save.
func (p *persister) appendLog(entry domain.WorkoutLog) {
	appender, ok := p.gateway.(WorkoutLogAppender)
	if !ok {
		return
	}
	p.mu.Lock()
	p.appendSeq++
	id := p.appendSeq
	a := inflightAppend{finished: make(chan struct{}), gate: p.clearing}
	p.inflight[id] = a
	p.mu.Unlock()

	p.appends.Add(1)
	go func() {
		defer p.appends.Done()
		defer func() {
			p.mu.Lock()
			delete(p.inflight, id)
			p.mu.Unlock()
			close(a.finished)
		}()
		if a.gate != nil {
			<-a.gate
		}
		ctx, cancel := p.writeContext()
		defer cancel()
		if err := appender.AppendWorkoutLog(ctx, entry); err != nil {
			observability.RecordPersistFailure("append_log")
			p.logger.WithError(fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)).
				WithField("workout_id", entry.WorkoutID).
				Warn("workout log append failed")
		}
	}()
}

func (p *persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.drain()
		case ack := <-p.flush:
			p.drain()
			close(ack)
		case <-p.quit:
			p.drain()
			return
		}
	}
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		doClear := p.pendingClear
		rec := p.pending
		var appendsBefore []chan struct{}
		var cleared chan struct{}
		p.pendingClear = false
		if doClear {
			// the snapshot, if any, is written on the next pass
			rec = nil
			appendsBefore, cleared = p.clearAfter, p.clearing
			p.clearAfter, p.clearing = nil, nil
		} else {
			p.pending = nil
		}
		p.mu.Unlock()

		switch {
		case doClear:
			for _, finished := range appendsBefore {
				<-finished
			}
			p.write("clear", func(ctx context.Context) error { return p.gateway.Clear(ctx) })
			close(cleared)
		case rec != nil:
			snapshot := *rec
			p.write("save", func(ctx context.Context) error { return p.gateway.Save(ctx, snapshot) })
		default:
			return
		}
	}
}

func (p *persister) write(op string, fn func(context.Context) error) {
	ctx, cancel := p.writeContext()
	defer cancel()
	if err := fn(ctx); err != nil {
		observability.RecordPersistFailure(op)
		p.logger.WithError(fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)).
			WithField("op", op).
			Warn("progress persistence failed")
		return
	}
	observability.RecordPersisted(time.Now())
}

func (p *persister) writeContext() (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), p.timeout)
}

// Flush blocks until every write queued before the call has been attempted.
func (p *persister) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case p.flush <- ack:
	case <-p.done:
		return p.waitAppends(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.waitAppends(ctx)
}

func (p *persister) close(ctx context.Context) error {
	close(p.quit)
	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.waitAppends(ctx)
}

func (p *persister) waitAppends(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		p.appends.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
