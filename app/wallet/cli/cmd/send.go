package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-resty/resty/v2"
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var (
	url       string
	recipient string
	amount    float64
)

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transaction",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		sender := signature.PublicKeyToIdentity(privateKey.PublicKey)

		tx, err := signature.Sign(ledger.NewTx(sender, recipient, amount, ""), privateKey)
		if err != nil {
			log.Fatal(err)
		}

		resp, err := resty.New().R().
			SetBody(tx).
			Post(fmt.Sprintf("%s/v1/tx/submit", url))
		if err != nil {
			log.Fatal(err)
		}
		if resp.IsError() {
			log.Fatalf("submit failed: %s: %s", resp.Status(), resp.String())
		}

		log.Printf("submitted: %s -> %s, %.2f", tx.Sender, tx.Recipient, tx.Amount)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().StringVarP(&recipient, "to", "t", "", "Identity receiving the funds.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
}
