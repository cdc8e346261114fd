package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mezonai/fastpay/authority"
	"github.com/mezonai/fastpay/config"
	"github.com/mezonai/fastpay/events"
	"github.com/mezonai/fastpay/exception"
	"github.com/mezonai/fastpay/jsonrpc"
	"github.com/mezonai/fastpay/ledger"
	"github.com/mezonai/fastpay/logx"
	"github.com/mezonai/fastpay/monitoring"
	"github.com/mezonai/fastpay/utils"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	authorityConfigPath string
	authorityTuningPath string
	authorityNodeID     string
)

var authorityCmd = &cobra.Command{
	Use:   "authority",
	Short: "Run a FastPay authority",
	Long: `Run one authority of the committee. The node file lists every authority
(id, public key, endpoint); --node selects which entry this process serves.

Example:
  fastpay authority --config config/node.yml --tuning config/tuning.ini --node auth1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthority(authorityConfigPath, authorityTuningPath, authorityNodeID)
	},
}

func init() {
	rootCmd.AddCommand(authorityCmd)
	authorityCmd.Flags().StringVarP(&authorityConfigPath, "config", "c", "config/node.yml", "Path to the node file")
	authorityCmd.Flags().StringVar(&authorityTuningPath, "tuning", "config/tuning.ini", "Path to the tuning file")
	authorityCmd.Flags().StringVarP(&authorityNodeID, "node", "n", "", "Roster id to run as (overrides self.id)")
}

func runAuthority(configPath, tuningPath, nodeID string) error {
	tuning, err := config.LoadTuning(tuningPath)
	if err != nil {
		return err
	}
	logx.Init(tuning.LogSettings())

	nodeCfg, err := config.LoadNodeConfig(configPath)
	if err != nil {
		return err
	}
	self := nodeCfg.Self
	if nodeID != "" {
		self.ID = nodeID
	}
	entry, ok := nodeCfg.Authority(self.ID)
	if !ok {
		return fmt.Errorf("node %q is not in the roster", self.ID)
	}
	if self.PrivKeyPath == "" {
		return fmt.Errorf("self.privkey_path is required to run an authority")
	}
	if self.ListenAddr == "" {
		return fmt.Errorf("self.listen_addr is required to run an authority")
	}

	kp, err := config.LoadEd25519PrivKey(self.PrivKeyPath)
	if err != nil {
		return err
	}
	if kp.PublicHex != entry.PublicKey {
		return fmt.Errorf("key in %s does not match roster entry %q", self.PrivKeyPath, self.ID)
	}

	auth, err := authority.New(kp, nodeCfg.Roster())
	if err != nil {
		return err
	}
	initialBalance, err := tuning.InitialBalance()
	if err != nil {
		return err
	}

	monitoring.InitMetrics()
	bus := events.NewEventBus()
	ld := ledger.NewLedger(auth, ledger.WithInitialBalance(initialBalance), ledger.WithEventBus(bus))
	subID := watchLedgerEvents(bus)
	defer bus.Unsubscribe(subID)

	srv := jsonrpc.NewServer(self.ListenAddr, ld, auth)
	srv.SetCORSConfig(jsonrpc.CORSConfig{
		AllowedOrigins: tuning.RPC.CORSAllowedOrigins,
		AllowedMethods: tuning.RPC.CORSAllowedMethods,
		AllowedHeaders: tuning.RPC.CORSAllowedHeaders,
		MaxAge:         tuning.RPC.CORSMaxAge,
	})
	if err := srv.Start(); err != nil {
		return err
	}
	logx.Info("AUTHORITY", fmt.Sprintf("Authority %s (%s) serving on %s | committee=%d | quorum=%d | initial_balance=%s",
		self.ID, utils.ShortenLog(kp.PublicHex), srv.Addr(), len(nodeCfg.Authorities), auth.QuorumSize(),
		utils.Uint256ToString(initialBalance)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logx.Info("AUTHORITY", "Received ", sig.String(), ", shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logx.Error("AUTHORITY", "Shutdown failed: ", err)
		return err
	}
	logx.Info("AUTHORITY", "Stopped")
	return nil
}

// watchLedgerEvents mirrors ledger events into the debug log.
func watchLedgerEvents(bus *events.EventBus) events.SubscriberID {
	id, ch := bus.Subscribe()
	exception.SafeGo("LedgerEventLog", func() {
		for ev := range ch {
			logx.Debug("EVENT", fmt.Sprintf("%s | sender=%s | order=%s",
				ev.Type(), utils.ShortenLog(ev.Sender()), utils.ShortenLog(ev.OrderID())))
		}
	})
	return id
}
