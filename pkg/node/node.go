// Package node wires one process of the cluster: the link loops, the
// delivery ledger, the broadcast layer, the workload and the output.
package node

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/skycoin/skycoin/src/util/logging"

	"github.com/skycoin/skylink/pkg/broadcast"
	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/eventlog"
	"github.com/skycoin/skylink/pkg/ledger"
	"github.com/skycoin/skylink/pkg/link"
	"github.com/skycoin/skylink/pkg/metrics"
	"github.com/skycoin/skylink/pkg/wire"
)

var log = logging.MustGetLogger("node")

const shutdownTimeout = 5 * time.Second

// Node is one process of the cluster.
type Node struct {
	conf  *Config
	self  cluster.Node
	nodes cluster.Nodes
	runID uuid.UUID

	link    *link.Link
	ledger  *ledger.Ledger
	writer  *eventlog.Writer
	store   eventlog.Store
	bcast   *broadcast.Broadcaster
	send    *link.Queue
	retrans *link.Queue

	registry *prometheus.Registry
	metrics  metrics.Recorder

	httpListener net.Listener
}

// New binds the socket of process self and constructs its Node. Output
// lines are written to out.
func New(conf *Config, self uint32, nodes cluster.Nodes, out io.Writer) (*Node, error) {
	n, ok := nodes.Get(self)
	if !ok {
		return nil, fmt.Errorf("node %d is not in the host list", self)
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewPrometheus("skylink", registry)

	l, err := link.Bind(n.Addr(), link.BindRetrier(), m)
	if err != nil {
		return nil, err
	}

	node, err := newNode(conf, self, nodes, out, l, registry, m)
	if err != nil {
		if cErr := l.Close(); cErr != nil {
			log.WithError(cErr).Warn("Failed to close socket")
		}
		return nil, err
	}
	return node, nil
}

func newNode(conf *Config, self uint32, nodes cluster.Nodes, out io.Writer, l *link.Link,
	registry *prometheus.Registry, m metrics.Recorder) (*Node, error) {

	conf.Defaults()
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if _, ok := nodes.Get(conf.ReceiverID); !ok && conf.Messages > 0 && conf.Mode == wire.PointToPoint {
		return nil, fmt.Errorf("receiver %d is not in the host list", conf.ReceiverID)
	}

	node := &Node{
		conf:     conf,
		self:     nodes[self],
		nodes:    nodes,
		runID:    uuid.New(),
		link:     l,
		send:     link.NewQueue(),
		retrans:  link.NewQueue(),
		registry: registry,
		metrics:  m,
	}

	if lvl, err := logging.LevelFromString(conf.LogLevel); err == nil {
		logging.SetLevel(lvl)
	}

	store, err := conf.EventStore(node.runID)
	if err != nil {
		return nil, errors.Wrap(err, "event journal")
	}
	node.store = store

	node.writer = eventlog.NewWriter(out, conf.OutputFormat(), store, m)
	node.ledger = ledger.New(self, len(nodes), node.writer)
	node.bcast = broadcast.New(self, nodes, node.send, node.ledger)

	if conf.Interfaces.HTTPAddress != "" {
		lis, err := net.Listen("tcp", conf.Interfaces.HTTPAddress)
		if err != nil {
			node.closeStore()
			return nil, fmt.Errorf("failed to setup HTTP listener: %s", err)
		}
		node.httpListener = lis
	}

	return node, nil
}

// RunID identifies this run in the journal.
func (node *Node) RunID() uuid.UUID { return node.runID }

// Ledger returns the delivery ledger of the process.
func (node *Node) Ledger() *ledger.Ledger { return node.ledger }

// Addr returns the bound socket address.
func (node *Node) Addr() net.Addr { return node.link.LocalAddr() }

// HTTPAddr returns the status API address, or nil when it is disabled.
func (node *Node) HTTPAddr() net.Addr {
	if node.httpListener == nil {
		return nil
	}
	return node.httpListener.Addr()
}

// Run starts every loop and blocks until ctx is cancelled or a loop
// fails. It returns the first fatal error. Output written before Run
// returns is flushed.
func (node *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Infof("Starting node %s (run %s) in %s mode", node.self, node.runID, node.conf.Mode)

	writerDone := make(chan error, 1)
	go func() { writerDone <- node.writer.Serve(context.Background()) }()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	serve := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errOnce.Do(func() {
					firstErr = errors.Wrap(err, name)
					log.WithError(err).Errorf("Stopping: %s failed", name)
				})
				cancel()
			}
		}()
	}

	offset := time.Duration(node.conf.RetransmissionOffset)
	serve("send loop", (&link.Sender{
		Self:    node.self.ID,
		Link:    node.link,
		Queue:   node.send,
		Retrans: node.retrans,
	}).Serve)
	serve("receive loop", (&link.Receiver{
		Link:    node.link,
		Nodes:   node.nodes,
		Queue:   node.send,
		Ledger:  node.ledger,
		Relay:   node.bcast,
		Metrics: node.metrics,
	}).Serve)
	serve("retransmission loop", (&link.Retransmitter{
		Queue:   node.retrans,
		Send:    node.send,
		Acks:    node.ledger,
		Offset:  offset,
		Metrics: node.metrics,
	}).Serve)
	serve("workload", (&Workload{
		Self:        node.self.ID,
		Nodes:       node.nodes,
		Mode:        node.conf.Mode,
		Messages:    node.conf.Messages,
		ReceiverID:  node.conf.ReceiverID,
		Send:        node.send,
		Broadcaster: node.bcast,
		Sink:        node.writer,
	}).Run)
	if node.httpListener != nil {
		serve("status API", node.serveHTTP)
	}

	<-ctx.Done()
	log.Info("Stopping node")

	if err := node.link.Close(); err != nil {
		log.WithError(err).Warn("Failed to close socket")
	}
	node.send.Close()
	node.retrans.Close()
	wg.Wait()

	node.writer.Close()
	if err := <-writerDone; err != nil && firstErr == nil {
		firstErr = errors.Wrap(err, "log writer")
	}
	node.closeStore()

	return firstErr
}

func (node *Node) serveHTTP(ctx context.Context) error {
	srv := &http.Server{Handler: NewAPI(node)}
	log.Info("Starting status API on ", node.httpListener.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(node.httpListener) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to shut down status API")
		}
		return nil
	}
}

func (node *Node) closeStore() {
	if node.store == nil {
		return
	}
	if err := node.store.Close(); err != nil {
		log.WithError(err).Warn("Failed to close event journal")
	}
}
