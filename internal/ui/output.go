package ui

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"github.com/testdeck/testdeck/internal/fleet"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	dimColor  = color.New(color.FgHiBlack)
)

// PrintFleetResults renders a fleet run's role → host → result map, hosts
// sorted within each role so repeated runs line up.
func PrintFleetResults(results map[string]map[string]fleet.HostResult) {
	roles := make([]string, 0, len(results))
	for role := range results {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		fmt.Printf("%s:\n", role)

		hosts := make([]string, 0, len(results[role]))
		for host := range results[role] {
			hosts = append(hosts, host)
		}
		sort.Strings(hosts)

		for _, host := range hosts {
			result := results[role][host]
			if result.Success {
				okColor.Printf("  %s ok\n", host)
			} else {
				failColor.Printf("  %s failed: %v\n", host, result.Err)
			}
			for _, line := range result.Stdout {
				fmt.Printf("    %s\n", line)
			}
			for _, line := range result.Stderr {
				dimColor.Printf("    %s\n", line)
			}
		}
	}
}
