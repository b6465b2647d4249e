package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-resty/resty/v2"
	"github.com/opencoin/blockchain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var balanceURL string

// balanceCmd represents the balance command.
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Query the balance for the wallet's identity",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		identity := signature.PublicKeyToIdentity(privateKey.PublicKey)

		var result struct {
			Identity string  `json:"identity"`
			Balance  float64 `json:"balance"`
		}

		resp, err := resty.New().R().
			SetResult(&result).
			Get(fmt.Sprintf("%s/v1/balances/%s", balanceURL, identity))
		if err != nil {
			log.Fatal(err)
		}
		if resp.IsError() {
			log.Fatalf("balance query failed: %s: %s", resp.Status(), resp.String())
		}

		log.Printf("balance for %s: %.2f", result.Identity, result.Balance)
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceURL, "url", "u", "http://localhost:8080", "Url of the node.")
}
