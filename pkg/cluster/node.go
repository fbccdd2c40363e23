// Package cluster describes the static set of processes taking part in a run.
package cluster

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Node identifies a process.
type Node struct {
	ID      uint32 `json:"id"`
	Address string `json:"address"`
	Port    uint16 `json:"port"`
}

// Addr returns the host:port address of the node's socket.
func (n Node) Addr() string {
	return net.JoinHostPort(n.Address, strconv.Itoa(int(n.Port)))
}

func (n Node) String() string {
	return fmt.Sprintf("%d@%s", n.ID, n.Addr())
}

// Nodes maps node ids to nodes.
type Nodes map[uint32]Node

// Get returns the node with the given id.
func (ns Nodes) Get(id uint32) (Node, bool) {
	n, ok := ns[id]
	return n, ok
}

// IDs returns the node ids in ascending order.
func (ns Nodes) IDs() []uint32 {
	ids := make([]uint32, 0, len(ns))
	for id := range ns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Others returns every node except self, ordered by id.
func (ns Nodes) Others(self uint32) []Node {
	out := make([]Node, 0, len(ns))
	for _, id := range ns.IDs() {
		if id != self {
			out = append(out, ns[id])
		}
	}
	return out
}

// Majority returns the smallest number of nodes forming a majority of n.
func Majority(n int) int {
	return n/2 + 1
}

// ReadHostsFile reads a host list from path.
func ReadHostsFile(path string) (Nodes, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "open hosts")
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Warn("Failed to close hosts file")
		}
	}()

	return ReadHosts(f)
}

// ReadHosts parses lines of `id address port`. Empty lines and lines
// starting with '#' are skipped.
func ReadHosts(r io.Reader) (Nodes, error) {
	nodes := make(Nodes)
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("hosts line %d: expected 'id address port', got %q", line, text)
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "hosts line %d: invalid id", line)
		}
		port, err := strconv.ParseUint(fields[2], 10, 16)
		if err != nil {
			return nil, errors.Wrapf(err, "hosts line %d: invalid port", line)
		}
		if _, ok := nodes[uint32(id)]; ok {
			return nil, fmt.Errorf("hosts line %d: duplicate id %d", line, id)
		}

		nodes[uint32(id)] = Node{ID: uint32(id), Address: fields[1], Port: uint16(port)}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read hosts")
	}
	if len(nodes) == 0 {
		return nil, errors.New("hosts: no nodes")
	}

	log.Debugf("loaded %d nodes", len(nodes))
	return nodes, nil
}
