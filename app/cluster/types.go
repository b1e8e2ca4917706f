package cluster

import "sort"

// Entry is one headline with its keyword set
type Entry struct {
	Title    string
	Link     string
	Keywords []string
}

// Cluster groups entries judged topically similar.
// Indices are positions in the input passed to Clusterer.Run, in input order.
type Cluster struct {
	Label   int
	Members []Entry
	Indices []int
}

func (c Cluster) Size() int {
	return len(c.Members)
}

// Partition maps a unique label to its cluster
type Partition map[int]Cluster

// Labels returns the partition labels in ascending order
func (p Partition) Labels() []int {
	labels := make([]int, 0, len(p))
	for label := range p {
		labels = append(labels, label)
	}
	sort.Ints(labels)
	return labels
}

// Clusters returns the clusters ordered by label
func (p Partition) Clusters() []Cluster {
	clusters := make([]Cluster, 0, len(p))
	for _, label := range p.Labels() {
		clusters = append(clusters, p[label])
	}
	return clusters
}

// EntryCount returns the total number of entries across all clusters
func (p Partition) EntryCount() int {
	total := 0
	for _, c := range p {
		total += c.Size()
	}
	return total
}

// Assignments annotates n input positions with their cluster label.
// Positions not present in the partition get -1.
func (p Partition) Assignments(n int) []int {
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	for label, c := range p {
		for _, idx := range c.Indices {
			if idx >= 0 && idx < n {
				assignments[idx] = label
			}
		}
	}
	return assignments
}
