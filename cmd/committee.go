package cmd

import (
	"fmt"
	"os"

	"github.com/mezonai/fastpay/client"
	"github.com/mezonai/fastpay/config"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/jsonx"
	"github.com/mezonai/fastpay/logx"
	"github.com/spf13/cobra"
)

// committeeFlags are shared by the commands that talk to the committee.
type committeeFlags struct {
	ConfigPath     string
	TuningPath     string
	PrivateKey     string
	PrivateKeyFile string
}

func (f *committeeFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "config/node.yml", "Path to the node file")
	cmd.PersistentFlags().StringVar(&f.TuningPath, "tuning", "", "Path to the tuning file (optional)")
	cmd.PersistentFlags().StringVarP(&f.PrivateKey, "private-key", "p", "", "account private key in hex")
	cmd.PersistentFlags().StringVarP(&f.PrivateKeyFile, "private-key-file", "f", "", "account private key file")
}

// dial loads the roster and tuning and opens one RPC client per authority.
func (f *committeeFlags) dial() (*client.QuorumClient, error) {
	tuning, err := config.LoadTuning(f.TuningPath)
	if err != nil {
		return nil, err
	}
	logx.Init(tuning.LogSettings())

	nodeCfg, err := config.LoadNodeConfig(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	authorities := make([]client.AuthorityClient, 0, len(nodeCfg.Authorities))
	for _, a := range nodeCfg.Authorities {
		authorities = append(authorities, client.NewRPCAuthorityClient(a.PublicKey, a.Endpoint, tuning.RequestTimeout()))
	}
	return client.NewQuorumClient(authorities,
		client.WithQuorumTimeout(tuning.QuorumTimeout()),
		client.WithConfirmTimeout(tuning.ConfirmTimeout()),
	)
}

// keyPair reads the account key from --private-key or --private-key-file.
func (f *committeeFlags) keyPair() (*crypto.KeyPair, error) {
	switch {
	case f.PrivateKey != "":
		return crypto.ParsePrivateKey(f.PrivateKey)
	case f.PrivateKeyFile != "":
		return config.LoadEd25519PrivKey(f.PrivateKeyFile)
	}
	return nil, fmt.Errorf("one of --private-key or --private-key-file is required")
}

func printJSON(v interface{}) error {
	out, err := jsonx.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}
