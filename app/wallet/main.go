package main

import "github.com/ardanlabs/ledger/app/wallet/cmd"

func main() {
	cmd.Execute()
}
