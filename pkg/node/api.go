package node

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skycoin/skylink/internal/httputil"
	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/ledger"
	"github.com/skycoin/skylink/pkg/wire"
)

var (
	// ErrUnknownOwner is returned for owners that are not in the cluster.
	ErrUnknownOwner = errors.New("unknown owner")
	// ErrJournalDisabled is returned when no journal is configured.
	ErrJournalDisabled = errors.New("event journal is disabled")
)

// Summary describes the process.
type Summary struct {
	Self     cluster.Node   `json:"self"`
	Nodes    []cluster.Node `json:"nodes"`
	Mode     wire.Kind      `json:"mode"`
	Messages int            `json:"messages"`
	RunID    uuid.UUID      `json:"run_id"`
	Majority int            `json:"majority"`
}

// Summary returns a description of the process.
func (node *Node) Summary() Summary {
	nodes := make([]cluster.Node, 0, len(node.nodes))
	for _, id := range node.nodes.IDs() {
		nodes = append(nodes, node.nodes[id])
	}
	return Summary{
		Self:     node.self,
		Nodes:    nodes,
		Mode:     node.conf.Mode,
		Messages: node.conf.Messages,
		RunID:    node.runID,
		Majority: node.ledger.Majority(),
	}
}

// NewAPI returns the status API of node.
func NewAPI(node *Node) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Timeout(time.Second * 30))
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Get("/node", node.getSummary())
		r.Get("/ledger", node.getLedger())
		r.Get("/ledger/{owner}", node.getOwner())
		r.Get("/journal", node.getJournal())
	})
	r.Handle("/metrics", promhttp.HandlerFor(node.registry, promhttp.HandlerOpts{}))
	return r
}

func (node *Node) getSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, r, http.StatusOK, node.Summary())
	}
}

func (node *Node) getLedger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, r, http.StatusOK, node.ledger.Stats())
	}
}

func (node *Node) getOwner() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := httputil.Uint32FromURL(r, "owner")
		if err != nil {
			httputil.WriteJSON(w, r, http.StatusBadRequest, err)
			return
		}
		if _, ok := node.nodes.Get(owner); !ok {
			httputil.WriteJSON(w, r, http.StatusNotFound, ErrUnknownOwner)
			return
		}

		stats := ledger.OwnerStats{OwnerID: owner, NextExpected: 1}
		for _, s := range node.ledger.Stats().Owners {
			if s.OwnerID == owner {
				stats = s
				break
			}
		}
		httputil.WriteJSON(w, r, http.StatusOK, stats)
	}
}

func (node *Node) getJournal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if node.store == nil {
			httputil.WriteJSON(w, r, http.StatusNotFound, ErrJournalDisabled)
			return
		}
		events, err := node.store.Events()
		if err != nil {
			httputil.WriteJSON(w, r, http.StatusInternalServerError, err)
			return
		}
		httputil.WriteJSON(w, r, http.StatusOK, events)
	}
}
