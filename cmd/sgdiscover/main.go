// Command sgdiscover browses the local network for SCPI raw-socket
// instruments and prints what it finds.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/obslab/drs4cal/internal/discovery"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Second, "browse duration")
	flag.Parse()

	instruments, err := discovery.Discover(*timeout)
	if err != nil {
		log.Fatalf("discovery failed: %v", err)
	}
	if len(instruments) == 0 {
		fmt.Println("no SCPI instruments found")
		return
	}

	for _, in := range instruments {
		addrs := make([]string, 0, len(in.Addresses))
		for _, a := range in.Addresses {
			addrs = append(addrs, a.String())
		}
		fmt.Printf("%-30s %-25s port %-6d [%s]\n",
			in.Instance, in.Hostname, in.Port, strings.Join(addrs, ", "))
		for _, txt := range in.TXT {
			fmt.Printf("  txt: %s\n", txt)
		}
	}
}
