// cmd/agentkit/main.go
package main

import (
	"fmt"
	"os"
)

func main() {
	s := &session{}
	err := newRootCmd(s).Execute()
	s.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
