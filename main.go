package main

import (
	"fmt"
	"os"

	"github.com/andydunstall/primegossip/cli"
)

func main() {
	if err := cli.Start(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
