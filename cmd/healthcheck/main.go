// Command healthcheck probes the local server's /livez endpoint. It exits 0
// when the server answers 200, for container HEALTHCHECK instructions.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/zewedjobs/zewed-jobs-go/internal/config"
)

func main() {
	port := os.Getenv(config.EnvPort)
	if port == "" {
		port = config.DefaultPort
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/livez", port))
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
