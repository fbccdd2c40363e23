package commands

import (
	"log"
	"log/syslog"

	logrus_syslog "github.com/sirupsen/logrus/hooks/syslog"
	"github.com/skycoin/skycoin/src/util/logging"
	"github.com/spf13/cobra"
)

var (
	syslogAddr string
	tag        string
)

var rootCmd = &cobra.Command{
	Use:   "skylink-node",
	Short: "Perfect links and layered broadcast over UDP",
	PersistentPreRun: func(*cobra.Command, []string) {
		if syslogAddr == "none" {
			return
		}
		hook, err := logrus_syslog.NewSyslogHook("udp", syslogAddr, syslog.LOG_INFO, tag)
		if err != nil {
			logging.MustGetLogger(tag).Error("Unable to connect to syslog daemon")
			return
		}
		logging.AddHook(hook)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&syslogAddr, "syslog", "", "none", "syslog server address. E.g. localhost:514")
	rootCmd.PersistentFlags().StringVarP(&tag, "tag", "", "skylink", "logging tag")

	rootCmd.AddCommand(runCmd, validateCmd, versionCmd)
}

// Execute executes root CLI command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
