package main

import (
	"github.com/opencoin/blockchain/app/wallet/cli/cmd"
)

func main() {
	cmd.Execute()
}
