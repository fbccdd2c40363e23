package commands

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" //no_lint
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"github.com/skycoin/skycoin/src/util/logging"
	"github.com/spf13/cobra"

	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/eventlog"
	"github.com/skycoin/skylink/pkg/node"
	"github.com/skycoin/skylink/pkg/util/pathutil"
	"github.com/skycoin/skylink/pkg/wire"
)

var (
	id          uint32
	hostsPath   string
	outputPath  string
	modeName    string
	profileMode string
	pport       string
)

var runCmd = &cobra.Command{
	Use:   "run [config-path]",
	Short: "Runs one process of the cluster",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		profilePath := profile.ProfilePath("./logs/" + tag)
		switch profileMode {
		case "cpu":
			defer profile.Start(profilePath, profile.CPUProfile).Stop()
		case "mem":
			defer profile.Start(profilePath, profile.MemProfile).Stop()
		case "mutex":
			defer profile.Start(profilePath, profile.MutexProfile).Stop()
		case "block":
			defer profile.Start(profilePath, profile.BlockProfile).Stop()
		case "trace":
			defer profile.Start(profilePath, profile.TraceProfile).Stop()
		case "http":
			go func() {
				log.Println(http.ListenAndServe(fmt.Sprintf("localhost:%v", pport), nil))
			}()
		default:
			// do nothing
		}

		logger := logging.MustGetLogger(tag)

		mode, err := wire.ParseKind(modeName)
		if err != nil {
			logger.Fatal(err)
		}

		conf := node.DefaultConfig()
		conf.Mode = mode
		if len(args) == 1 {
			path, err := pathutil.Expand(args[0])
			if err != nil {
				logger.Fatalf("Invalid config path: %s", err)
			}
			if conf, err = node.ReadConfig(path, mode); err != nil {
				logger.Fatal(err)
			}
		}

		hosts, err := pathutil.Expand(hostsPath)
		if err != nil {
			logger.Fatalf("Invalid hosts path: %s", err)
		}
		nodes, err := cluster.ReadHostsFile(hosts)
		if err != nil {
			logger.Fatal(err)
		}

		output, err := pathutil.Expand(outputPath)
		if err != nil {
			logger.Fatalf("Invalid output path: %s", err)
		}
		out, err := eventlog.CreateOutput(output)
		if err != nil {
			logger.Fatal(err)
		}

		n, err := node.New(conf, id, nodes, out)
		if err != nil {
			logger.Fatal("Failed to initialise node: ", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		ch := make(chan os.Signal, 2)
		signal.Notify(ch, []os.Signal{syscall.SIGINT, syscall.SIGTERM}...)
		go func() {
			s := <-ch
			logger.Infof("Received signal %s: stopping", s)
			cancel()
			s = <-ch
			logger.Fatalf("Received signal %s: terminating", s)
		}()

		runErr := n.Run(ctx)
		if err := out.Close(); err != nil {
			logger.WithError(err).Error("Failed to close output")
		}
		if runErr != nil {
			logger.Fatal("Node stopped: ", runErr)
		}
	},
}

func init() {
	runCmd.Flags().Uint32Var(&id, "id", 0, "id of this process in the hosts file")
	runCmd.Flags().StringVar(&hostsPath, "hosts", "hosts", "path to the hosts file")
	runCmd.Flags().StringVar(&outputPath, "output", "output.txt", "path to the output file")
	runCmd.Flags().StringVarP(&modeName, "mode", "m", "perfect", "delivery mode unless set by the config: perfect, beb, rb, urb or fifo")
	runCmd.Flags().StringVarP(&profileMode, "pprof", "p", "none", "enable profiling with pprof. Mode:  none or one of: [cpu, mem, mutex, block, trace, http]")
	runCmd.Flags().StringVarP(&pport, "pport", "", "6060", "port for http-mode of pprof")
	_ = runCmd.MarkFlagRequired("id") //nolint:errcheck
}
