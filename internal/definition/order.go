package definition

import "github.com/mailflow/mailflow/pkg/schema"

// ExecutionOrder computes a topological ordering of the active (non-disabled)
// nodes using Kahn's algorithm. Adjacency and in-degree are built strictly
// from connection targets that exist among active nodes; the FIFO queue is
// seeded with all zero-in-degree nodes (normally the trigger). Ties are
// broken by node encounter order.
func ExecutionOrder(nodes []schema.WorkflowNode, conns schema.Connections) []string {
	active := make(map[string]bool, len(nodes))
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.Disabled {
			continue
		}
		active[n.ID] = true
		order = append(order, n.ID)
	}

	adjacency := make(map[string][]string, len(order))
	inDegree := make(map[string]int, len(order))
	for _, id := range order {
		inDegree[id] = 0
	}

	for _, sourceID := range order {
		nc, ok := conns[sourceID]
		if !ok {
			continue
		}
		for _, port := range nc.Main {
			for _, target := range port {
				if !active[target.Node] {
					continue
				}
				adjacency[sourceID] = append(adjacency[sourceID], target.Node)
				inDegree[target.Node]++
			}
		}
	}

	queue := make([]string, 0, len(order))
	for _, id := range order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		for _, next := range adjacency[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	return sorted
}
