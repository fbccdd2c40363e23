package cluster

import "github.com/skycoin/skycoin/src/util/logging"

var log = logging.MustGetLogger("cluster")
