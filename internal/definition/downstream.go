package definition

import "github.com/mailflow/mailflow/pkg/schema"

// Downstream returns every node reachable forward from nodeID, walking all
// output ports breadth-first. Used for impact analysis (safe-delete checks)
// by external callers; the executor itself never calls this.
func Downstream(nodeID string, conns schema.Connections, nodeIDs []string) []string {
	exists := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		exists[id] = true
	}

	visited := map[string]bool{nodeID: true}
	queue := []string{nodeID}
	var downstream []string

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, port := range conns[id].Main {
			for _, target := range port {
				if visited[target.Node] || !exists[target.Node] {
					continue
				}
				visited[target.Node] = true
				downstream = append(downstream, target.Node)
				queue = append(queue, target.Node)
			}
		}
	}

	return downstream
}
