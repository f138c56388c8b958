package main

import "github.com/information-sharing-networks/oms-authenticator/internal/cli"

func main() {
	cli.Execute()
}
