package cluster

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHosts(t *testing.T) {
	in := `# id address port
1 localhost 11001
2 127.0.0.1 11002

3   localhost   11003
`
	nodes, err := ReadHosts(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	n, ok := nodes.Get(2)
	require.True(t, ok)
	assert.Equal(t, Node{ID: 2, Address: "127.0.0.1", Port: 11002}, n)
	assert.Equal(t, "127.0.0.1:11002", n.Addr())
	assert.Equal(t, []uint32{1, 2, 3}, nodes.IDs())

	others := nodes.Others(2)
	require.Len(t, others, 2)
	assert.Equal(t, uint32(1), others[0].ID)
	assert.Equal(t, uint32(3), others[1].ID)
}

func TestReadHosts_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "missing port", in: "1 localhost\n"},
		{name: "bad id", in: "x localhost 11001\n"},
		{name: "bad port", in: "1 localhost 70000\n"},
		{name: "duplicate id", in: "1 localhost 11001\n1 localhost 11002\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadHosts(strings.NewReader(tc.in))
			assert.Error(t, err)
		})
	}
}

func TestReadHostsFile(t *testing.T) {
	f, err := ioutil.TempFile("", "hosts")
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Remove(f.Name())) }()

	_, err = f.WriteString("1 localhost 11001\n2 localhost 11002\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	nodes, err := ReadHostsFile(f.Name())
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	_, err = ReadHostsFile(f.Name() + ".missing")
	assert.Error(t, err)
}

func TestMajority(t *testing.T) {
	for n, want := range map[int]int{1: 1, 2: 2, 3: 2, 4: 3, 5: 3, 10: 6} {
		assert.Equal(t, want, Majority(n), "n=%d", n)
	}
}
