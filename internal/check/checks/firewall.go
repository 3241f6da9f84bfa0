package checks

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/veris-memory/sentinel/internal/check"
	"github.com/veris-memory/sentinel/internal/result"
)

// allowedListeningPorts are the ports this process expects to see open
// on the host it runs on (its own API port plus the service ports the
// monitored stack is known to expose). Anything else listening is an
// unexpected exposure.
var allowedListeningPorts = map[int]bool{
	22:   true, // SSH
	80:   true,
	443:  true,
	9090: true, // Sentinel's own query API
}

// NewFirewallStatus builds the S11 check: introspects locally listening
// TCP ports via the `ss` subprocess and reports anything outside the
// allow-list.
func NewFirewallStatus(deps check.Deps) check.Check {
	return check.NewBase("S11-firewall-status", "Local firewall / exposed-port introspection", true, func(ctx context.Context) result.Result {
		ports, err := listeningTCPPorts(ctx)
		if err != nil {
			return result.Result{
				Status:  result.StatusWarn,
				Message: "unable to introspect local ports: " + err.Error(),
			}
		}

		var unexpected []int
		for _, p := range ports {
			if !allowedListeningPorts[p] {
				unexpected = append(unexpected, p)
			}
		}

		if len(unexpected) > 0 {
			return result.Result{
				Status:  result.StatusFail,
				Message: fmt.Sprintf("unexpected listening ports: %v", unexpected),
				Details: map[string]interface{}{
					"listening_ports":  ports,
					"unexpected_ports": unexpected,
				},
			}
		}

		return result.Result{
			Status:  result.StatusPass,
			Message: "no unexpected exposures",
			Details: map[string]interface{}{"listening_ports": ports},
		}
	})
}

// listeningTCPPorts shells out to `ss -ltn` and parses the local port
// from each listening socket line. A missing `ss` binary is surfaced as
// an error, not a panic.
func listeningTCPPorts(ctx context.Context) ([]int, error) {
	cmd := exec.CommandContext(ctx, "ss", "-ltn")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return parseListeningPorts(&out)
}

// parseListeningPorts extracts the local port from each `ss -ltn`
// output line. Split out from listeningTCPPorts so the parsing logic is
// testable without shelling out.
func parseListeningPorts(r io.Reader) ([]int, error) {
	var ports []int
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		localAddr := fields[3]
		idx := strings.LastIndex(localAddr, ":")
		if idx == -1 {
			continue
		}
		port, err := strconv.Atoi(localAddr[idx+1:])
		if err != nil {
			continue
		}
		ports = append(ports, port)
	}
	return ports, scanner.Err()
}
